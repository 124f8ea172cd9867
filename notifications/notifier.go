// Package notifications delivers auth-state events to connected clients
// through Redis pub/sub and websockets.
package notifications

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"strconv"

	"taleboard/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Auth-state event names pushed to clients. Clients react the same way they
// would to a session change they triggered themselves.
const (
	EventSignedIn         = "SIGNED_IN"
	EventSignedOut        = "SIGNED_OUT"
	EventPasswordRecovery = "PASSWORD_RECOVERY"
)

// AuthEvent is the payload published on a user's channel.
type AuthEvent struct {
	Event  string `json:"event"`
	UserID uint   `json:"user_id"`
}

// Notifier publishes auth-state events into Redis channels. A nil Redis
// client disables delivery without failing the triggering request.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishAuthEvent sends an auth-state event to the user's channel.
func (n *Notifier) PublishAuthEvent(ctx context.Context, userID uint, event string) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(AuthEvent{Event: event, UserID: userID})
	if err != nil {
		return err
	}
	observability.AuthEvents.WithLabelValues(event).Inc()
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// StartPatternSubscriber subscribes to `auth:user:*` and calls onMessage for
// each incoming message.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "auth:user:*")
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in auth subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user's auth events.
func UserChannel(userID uint) string {
	return "auth:user:" + strconv.FormatUint(uint64(userID), 10)
}
