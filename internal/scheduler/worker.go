package scheduler

import (
	"context"
	"fmt"

	"github.com/emmanuel582/backendtablenow/internal/email"
	"github.com/emmanuel582/backendtablenow/internal/reservations/repository"
	"github.com/emmanuel582/backendtablenow/internal/tenants"
	"github.com/emmanuel582/backendtablenow/platform/apperr"
	"github.com/emmanuel582/backendtablenow/platform/config"
	"github.com/emmanuel582/backendtablenow/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes reminder tasks and sends the guest email. State is
// re-checked at delivery time, so cancellations between enqueue and delivery
// drop the reminder instead of emailing about a dead booking.
type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	reservations *repository.Repository
	tenants      *tenants.Repository
	sender       email.Sender
	log          *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:       server,
		mux:          mux,
		reservations: repository.New(pool),
		tenants:      tenants.NewRepository(pool),
		sender:       sender,
		log:          log,
	}

	mux.HandleFunc(TaskReservationReminder, w.handleReservationReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleReservationReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReservationReminderPayload(task)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	res, err := w.reservations.GetByCode(ctx, tenantID, payload.ConfirmationCode)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if res.Status != repository.StatusConfirmed || res.GuestEmail == nil {
		return nil
	}

	tenant, err := w.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	err = w.sender.SendGuestReminder(ctx, *res.GuestEmail, email.ReservationDetails{
		GuestName:        res.GuestName,
		RestaurantName:   tenant.Name,
		Date:             res.Date,
		Time:             res.Time,
		PartySize:        res.PartySize,
		ConfirmationCode: res.ConfirmationCode,
		SpecialRequests:  optionalString(res.SpecialRequests),
	})
	if err != nil {
		return fmt.Errorf("send reminder for %s: %w", res.ConfirmationCode, err)
	}

	w.log.Info("reservation reminder sent", "confirmation_code", res.ConfirmationCode)
	return nil
}

func optionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
