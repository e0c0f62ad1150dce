package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/config"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Scores     usecase.ScoreService
	Questions  usecase.QuestionService
	Auth       usecase.AuthService
	Hub        domain.Notifier
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, scores usecase.ScoreService, questions usecase.QuestionService, auth usecase.AuthService, hub domain.Notifier, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Scores: scores, Questions: questions, Auth: auth, Hub: hub, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json body: %w", domain.ErrInvalidArgument)
	}
	if err := getValidator().Struct(v); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidArgument)
	}
	return nil
}

type submitRequest struct {
	Key             string `json:"key" validate:"required"`
	Question        string `json:"question" validate:"required"`
	ReferenceAnswer string `json:"referenceAnswer"`
	UserAnswer      string `json:"userAnswer" validate:"required"`
}

type jobResponse struct {
	ID        string   `json:"id"`
	Key       string   `json:"key"`
	Status    string   `json:"status"`
	Score     *float64 `json:"score,omitempty"`
	Analysis  string   `json:"analysis,omitempty"`
	Error     string   `json:"error,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

func toJobResponse(j domain.ScoreJob) jobResponse {
	resp := jobResponse{
		ID:        j.ID,
		Key:       j.Key,
		Status:    string(j.Status),
		Score:     j.Score,
		Analysis:  j.Analysis,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if j.UpdatedAt != nil {
		resp.UpdatedAt = j.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	return resp
}

// SubmitHandler accepts an answer and enqueues it for asynchronous scoring.
// It responds 202 with the job id; the result arrives over the stream or
// via polling.
func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		id, err := s.Scores.Submit(r.Context(), usecase.SubmitInput{
			Key:             req.Key,
			Question:        req.Question,
			ReferenceAnswer: req.ReferenceAnswer,
			UserAnswer:      req.UserAnswer,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": string(domain.JobPending)})
	}
}

// NextHandler returns the latest completed result for a key, 204 when none.
func (s *Server) NextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		job, err := s.Scores.Next(r.Context(), key)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if job == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, toJobResponse(*job))
	}
}

// StatusHandler returns a job by id in any state, 404 when unknown.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		job, err := s.Scores.Status(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toJobResponse(job))
	}
}
