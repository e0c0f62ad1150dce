package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// channelPrefix namespaces score events on the shared redis instance.
const channelPrefix = "score:events:"

// RedisHub is a Notifier backed by redis pub/sub, allowing the scoring
// worker and the API server to run in separate processes. Semantics match
// the in-memory Hub: transient, at-most-once, no backlog.
type RedisHub struct {
	client *redis.Client
}

// NewRedisHub constructs a RedisHub over the given client.
func NewRedisHub(client *redis.Client) *RedisHub {
	return &RedisHub{client: client}
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan []byte
	once   sync.Once
}

// C returns the subscriber's receive channel. It is closed on unsubscribe
// or when the redis connection drops.
func (s *redisSubscription) C() <-chan []byte { return s.ch }

func (s *redisSubscription) close() {
	s.once.Do(func() { _ = s.pubsub.Close() })
}

// Subscribe opens a dedicated redis subscription for key and pumps its
// messages into a bounded local queue with drop-oldest on overflow.
func (h *RedisHub) Subscribe(key string) domain.Subscription {
	pubsub := h.client.Subscribe(context.Background(), channelPrefix+key)
	sub := &redisSubscription{pubsub: pubsub, ch: make(chan []byte, queueCapacity)}
	go func() {
		defer close(sub.ch)
		for msg := range pubsub.Channel() {
			payload := []byte(msg.Payload)
			for {
				select {
				case sub.ch <- payload:
				default:
					select {
					case <-sub.ch:
					default:
					}
					continue
				}
				break
			}
		}
	}()
	return sub
}

// Unsubscribe closes the redis subscription; the pump goroutine then closes
// the local queue. Safe to call more than once.
func (h *RedisHub) Unsubscribe(_ string, s domain.Subscription) {
	if sub, ok := s.(*redisSubscription); ok {
		sub.close()
	}
}

// Publish broadcasts message to every subscriber of key across processes.
func (h *RedisHub) Publish(ctx domain.Context, key string, message []byte) {
	if err := h.client.Publish(ctx, channelPrefix+key, message).Err(); err != nil {
		slog.Error("notify: redis publish failed", slog.String("key", key), slog.Any("error", err))
	}
}
