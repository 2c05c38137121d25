package storage

import (
	"context"
	"fmt"

	"github.com/emmanuel582/backendtablenow/internal/events"
	"github.com/emmanuel582/backendtablenow/platform/logger"
)

// CallRefWriter persists the archived object key on the call log row.
type CallRefWriter interface {
	SetCallRecordingRef(ctx context.Context, callID, recordingRef string) error
}

// Subscriber archives recordings when calls end. It runs off the event bus so
// the voice webhook never waits on a multi-megabyte download.
type Subscriber struct {
	archive *RecordingArchive
	calls   CallRefWriter
	log     *logger.Logger
}

// NewSubscriber creates a new recording archive subscriber.
func NewSubscriber(archive *RecordingArchive, calls CallRefWriter, log *logger.Logger) *Subscriber {
	return &Subscriber{archive: archive, calls: calls, log: log}
}

// Register subscribes to call-ended events.
func (s *Subscriber) Register(bus events.Bus) {
	bus.Subscribe(events.CallEnded{}.EventName(), events.HandlerFunc(s.handleCallEnded))
}

func (s *Subscriber) handleCallEnded(ctx context.Context, event events.Event) error {
	ended, ok := event.(events.CallEnded)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if ended.RecordingURL == "" {
		return nil
	}

	key, err := s.archive.ArchiveFromURL(ctx, ended.TenantID, ended.CallID, ended.RecordingURL)
	if err != nil {
		return fmt.Errorf("archive recording for call %s: %w", ended.CallID, err)
	}

	if err := s.calls.SetCallRecordingRef(ctx, ended.CallID, key); err != nil {
		return fmt.Errorf("persist recording ref for call %s: %w", ended.CallID, err)
	}

	s.log.Info("call recording archived", "call_id", ended.CallID, "key", key)
	return nil
}
