// Package notifications publishes domain events into Redis channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"social/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types published by the API.
const (
	EventPostCreated    = "post.created"
	EventCommentCreated = "comment.created"
	EventLikeCreated    = "like.created"
	EventMessageCreated = "message.created"
)

// Event is the JSON envelope written to a channel.
type Event struct {
	Type       string      `json:"type"`
	ActorID    uint        `json:"actor_id"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Notifier provides helpers to publish events into Redis channels. A Notifier
// with a nil client drops every event.
type Notifier struct {
	rdb *redis.Client
	now func() time.Time
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, now: time.Now}
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// ChatChannel derives the Redis channel name for a chat.
func ChatChannel(chatID uint) string {
	return "chat:" + strconv.FormatUint(uint64(chatID), 10)
}

// Publish marshals an event and publishes it on every channel. Delivery is
// best effort; the first error is returned after all channels were tried.
func (n *Notifier) Publish(ctx context.Context, eventType string, actorID uint, data interface{}, channels ...string) error {
	if n == nil || n.rdb == nil || len(channels) == 0 {
		return nil
	}

	payload, err := json.Marshal(Event{
		Type:       eventType,
		ActorID:    actorID,
		Data:       data,
		OccurredAt: n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var firstErr error
	for _, ch := range channels {
		if err := n.rdb.Publish(ctx, ch, payload).Err(); err != nil {
			observability.EventsPublished.WithLabelValues(eventType, "error").Inc()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		observability.EventsPublished.WithLabelValues(eventType, "ok").Inc()
	}
	return firstErr
}

// Subscribe listens on channel patterns and calls onEvent for each message
// until ctx is done. A panicking handler is logged and does not stop the loop.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(channel string, evt Event), patterns ...string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if len(patterns) == 0 {
		patterns = []string{"user:*", "chat:*"}
	}

	sub := n.rdb.PSubscribe(ctx, patterns...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %v: %w", patterns, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					slog.Warn("dropping malformed event", slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("event handler panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(msg.Channel, evt)
				}()
			}
		}
	}()

	return nil
}
