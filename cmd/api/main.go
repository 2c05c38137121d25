package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emmanuel582/backendtablenow/internal/availability"
	"github.com/emmanuel582/backendtablenow/internal/calendar"
	"github.com/emmanuel582/backendtablenow/internal/crm"
	"github.com/emmanuel582/backendtablenow/internal/email"
	"github.com/emmanuel582/backendtablenow/internal/events"
	"github.com/emmanuel582/backendtablenow/internal/fanout"
	apphttp "github.com/emmanuel582/backendtablenow/internal/http"
	"github.com/emmanuel582/backendtablenow/internal/http/router"
	"github.com/emmanuel582/backendtablenow/internal/inboundemail"
	"github.com/emmanuel582/backendtablenow/internal/knowledge"
	"github.com/emmanuel582/backendtablenow/internal/reservations"
	"github.com/emmanuel582/backendtablenow/internal/scheduler"
	"github.com/emmanuel582/backendtablenow/internal/storage"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/internal/voice"
	"github.com/emmanuel582/backendtablenow/platform/config"
	"github.com/emmanuel582/backendtablenow/platform/db"
	"github.com/emmanuel582/backendtablenow/platform/logger"
	"github.com/emmanuel582/backendtablenow/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	tenantsModule := tenants.NewModule(pool, val, log)

	// External collaborators behind the fan-out coordinator
	calendarClient := calendar.NewClient(cfg, log)
	crmClient := crm.NewClient(cfg, log)

	reservationsModule := reservations.NewModule(pool, tenantsModule.Repository(), nil, eventBus, val, log)
	coordinator := fanout.New(calendarClient, crmClient, sender, reservationsModule.Repository(), log)
	reservationsModule.SetEffects(coordinator)

	availabilitySvc := availability.New(calendarClient, reservationsModule.Repository(), log)

	know := newKnowledgeService(ctx, cfg, log)

	voiceModule := voice.NewModule(cfg, tenantsModule.Resolver(), reservationsModule.Service(), availabilitySvc, know, coordinator, eventBus, log)

	inboundModule := inboundemail.NewModule(cfg, tenantsModule.Repository(), reservationsModule.Service(), coordinator, val, log)
	inboundModule.StartPoller(ctx)

	// Reminder scheduling rides on the domain event stream.
	if reminderClient, closeScheduler := initReminderScheduler(cfg, log); reminderClient != nil {
		defer closeScheduler()
		scheduler.NewSubscriber(reminderClient, log).Register(eventBus)
	}

	// Recording archive subscribes to call-ended events.
	if cfg.IsMinIOEnabled() {
		archive, err := storage.NewRecordingArchive(cfg, log)
		if err != nil {
			log.Error("failed to initialize recording archive", "error", err)
			panic("failed to initialize recording archive: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure recordings bucket", 5, 2*time.Second, func() error {
			return archive.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure recordings bucket", "error", err)
			panic("failed to ensure recordings bucket: " + err.Error())
		}
		storage.NewSubscriber(archive, reservationsModule.Repository(), log).Register(eventBus)
		log.Info("recording archive initialized", "bucket", cfg.GetMinioBucketCallRecordings())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; call recordings will not be archived")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			tenantsModule,
			reservationsModule,
			voiceModule,
			inboundModule,
		},
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.New(app),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

// newKnowledgeService picks Gemini when an API key is configured, otherwise
// the static fallback answerer.
func newKnowledgeService(ctx context.Context, cfg config.KnowledgeConfig, log *logger.Logger) knowledge.Service {
	if !cfg.IsKnowledgeEnabled() {
		log.Warn("GEMINI_API_KEY not configured; knowledge questions get the fallback answer")
		return knowledge.StaticService{}
	}

	svc, err := knowledge.NewGeminiService(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize knowledge service, falling back", "error", err)
		return knowledge.StaticService{}
	}
	return svc
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; reservation reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
