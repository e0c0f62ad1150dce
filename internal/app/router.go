// Package app assembles the HTTP router and background loops.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/config"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. Empty input means all origins.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
// The stream route deliberately sits outside the timeout middleware; a
// buffered, deadline-bound writer would break SSE.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limit mutating endpoints
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		wr.Use(httpserver.TimeoutMiddleware(30 * time.Second))
		wr.Post("/score/submit", srv.SubmitHandler())
		wr.Post("/questions/generate", srv.GenerateQuestionsHandler())
		wr.Put("/questions/{id}", srv.UpdateQuestionHandler())
		wr.Post("/questions/{id}/approve", srv.ApproveQuestionHandler())
		wr.Post("/questions/{id}/reject", srv.RejectQuestionHandler())
		wr.Delete("/questions/{id}", srv.DeleteQuestionHandler())
		wr.Post("/auth/register", srv.RegisterHandler(domain.AudienceAdmin))
		wr.Post("/auth/login", srv.LoginHandler(domain.AudienceAdmin))
		wr.Post("/client/auth/register", srv.RegisterHandler(domain.AudienceClient))
		wr.Post("/client/auth/login", srv.LoginHandler(domain.AudienceClient))
	})

	// Read-only endpoints
	r.Group(func(rr chi.Router) {
		rr.Use(httpserver.TimeoutMiddleware(30 * time.Second))
		rr.Get("/score/next", srv.NextHandler())
		rr.Get("/score/status", srv.StatusHandler())
		rr.Get("/questions", srv.ListQuestionsHandler())
	})

	// Long-lived SSE stream, no timeout wrapper.
	r.Get("/score/stream", srv.StreamHandler())

	// Health and metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })
	r.Get("/readyz", srv.ReadyzHandler())

	return httpserver.SecurityHeaders(r)
}
