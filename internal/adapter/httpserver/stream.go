package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// StreamHandler serves Server-Sent Events for one correlation key. Every
// completion event, success or failure, is delivered as an "event: done"
// frame whose JSON payload carries the type. The stream stays open until
// the client disconnects; delivery is at-most-once and durable state lives
// in the job store.
func (s *Server) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if key == "" {
			writeError(w, r, fmt.Errorf("key is required: %w", domain.ErrInvalidArgument), nil)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, r, fmt.Errorf("streaming unsupported: %w", domain.ErrInternal), nil)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		// Disable proxy buffering so frames reach the client immediately.
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		// Comment frame confirms the subscription before any event arrives.
		_, _ = fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		sub := s.Hub.Subscribe(key)
		defer s.Hub.Unsubscribe(key, sub)
		observability.StreamSubscribers.Inc()
		defer observability.StreamSubscribers.Dec()

		lg := LoggerFrom(r)
		lg.Info("stream opened", slog.String("key", key))
		defer lg.Info("stream closed", slog.String("key", key))

		for {
			select {
			case <-r.Context().Done():
				return
			case msg, ok := <-sub.C():
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "event: done\ndata: %s\n\n", msg); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
