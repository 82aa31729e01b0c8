package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/courtweb-service/internal/events"
	"github.com/spec-kit/courtweb-service/internal/observability"
	"github.com/spec-kit/courtweb-service/internal/repository"
)

// StartSessionSweeper launches the periodic expiry sweep, the backstop
// for records never touched by a read after expiring. Stops when ctx is
// cancelled.
func StartSessionSweeper(ctx context.Context, store repository.SessionStore, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := store.SweepExpired(ctx, time.Now())
				if err != nil {
					logger.Warn("session sweep failed", zap.Error(err))
					continue
				}
				metrics.RecordSweep(count)
				if count > 0 {
					logger.Info("swept expired sessions", zap.Int64("count", count))
					if dispatcher != nil {
						_ = dispatcher.Publish(ctx, events.Event{
							ID:        uuid.NewString(),
							Type:      events.EventSessionsSwept,
							Timestamp: time.Now(),
							Payload:   events.SessionsSweptPayload{Count: count},
						})
					}
				}
			}
		}
	}()
}
