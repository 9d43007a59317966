package event

import (
	"context"
	"log/slog"
)

// RunAuditLog writes one structured log line per order event until ctx is
// done or the bus closes the subscription.
func RunAuditLog(ctx context.Context, bus Bus, logger *slog.Logger) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			attrs := []any{
				"event_id", e.ID,
				"type", e.Type,
				"order_id", e.OrderID,
				"actor_id", e.ActorID,
				"at", e.Timestamp,
			}
			for k, v := range e.Attrs {
				attrs = append(attrs, k, v)
			}
			logger.InfoContext(ctx, "order event", attrs...)
		}
	}
}
