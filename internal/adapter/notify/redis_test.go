package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/notify"
)

func newRedisHub(t *testing.T) *notify.RedisHub {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return notify.NewRedisHub(client)
}

func TestRedisHub_PublishReachesSubscriber(t *testing.T) {
	t.Parallel()
	h := newRedisHub(t)
	sub := h.Subscribe("k1")
	defer h.Unsubscribe("k1", sub)

	// The redis subscription is established asynchronously.
	require.Eventually(t, func() bool {
		h.Publish(context.Background(), "k1", []byte("hello"))
		select {
		case msg := <-sub.C():
			return string(msg) == "hello"
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisHub_KeysAreIsolated(t *testing.T) {
	t.Parallel()
	h := newRedisHub(t)
	a := h.Subscribe("k1")
	defer h.Unsubscribe("k1", a)
	b := h.Subscribe("k2")
	defer h.Unsubscribe("k2", b)

	require.Eventually(t, func() bool {
		h.Publish(context.Background(), "k1", []byte("for-k1"))
		select {
		case <-a.C():
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	select {
	case msg := <-b.C():
		t.Fatalf("unexpected message on k2: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisHub_UnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	h := newRedisHub(t)
	sub := h.Subscribe("k1")
	h.Unsubscribe("k1", sub)
	h.Unsubscribe("k1", sub)

	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed")
	}
}
