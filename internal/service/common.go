package service

import (
	"context"

	"social/internal/notifications"
	"social/internal/observability"
)

// dedupeIDs drops zero and repeated IDs, keeping first-seen order.
func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// publish sends a domain event and only logs failures.
func publish(ctx context.Context, n *notifications.Notifier, log *observability.ServiceLogger, eventType string, actorID uint, data interface{}, channels ...string) {
	if err := n.Publish(ctx, eventType, actorID, data, channels...); err != nil {
		log.Warn(ctx, "event publish failed", "event", eventType, "error", err.Error())
	}
}

func created(kind string) {
	observability.EntitiesCreated.WithLabelValues(kind).Inc()
}
