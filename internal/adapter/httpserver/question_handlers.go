package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/usecase"
)

type generateRequest struct {
	UserID string `json:"userId" validate:"required"`
	Prompt string `json:"prompt" validate:"required"`
}

type updateQuestionRequest struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Type           string   `json:"type" validate:"omitempty,oneof=choice blank subjective"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correctAnswers"`
	Answer         string   `json:"answer"`
}

type questionResponse struct {
	ID             string   `json:"id"`
	UserID         string   `json:"userId"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Type           string   `json:"type"`
	Options        []string `json:"options,omitempty"`
	CorrectAnswers []string `json:"correctAnswers,omitempty"`
	Answer         string   `json:"answer,omitempty"`
	Status         string   `json:"status"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

func toQuestionResponse(q domain.Question) questionResponse {
	resp := questionResponse{
		ID:             q.ID,
		UserID:         q.UserID,
		Title:          q.Title,
		Content:        q.Content,
		Type:           q.Type,
		Options:        q.Options,
		CorrectAnswers: q.CorrectAnswers,
		Answer:         q.Answer,
		Status:         string(q.Status),
		CreatedAt:      q.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if q.UpdatedAt != nil {
		resp.UpdatedAt = q.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	return resp
}

func toQuestionResponses(qs []domain.Question) []questionResponse {
	out := make([]questionResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, toQuestionResponse(q))
	}
	return out
}

// GenerateQuestionsHandler calls the generation upstream and stores the
// result as pending questions.
func (s *Server) GenerateQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		questions, err := s.Questions.Generate(r.Context(), req.UserID, req.Prompt)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"questions": toQuestionResponses(questions)})
	}
}

// ListQuestionsHandler returns a user's questions.
func (s *Server) ListQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		questions, err := s.Questions.List(r.Context(), userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": toQuestionResponses(questions)})
	}
}

// UpdateQuestionHandler edits a question in place.
func (s *Server) UpdateQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateQuestionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		q, err := s.Questions.Update(r.Context(), usecase.UpdateInput{
			ID:             chi.URLParam(r, "id"),
			Title:          req.Title,
			Content:        req.Content,
			Type:           req.Type,
			Options:        req.Options,
			CorrectAnswers: req.CorrectAnswers,
			Answer:         req.Answer,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toQuestionResponse(q))
	}
}

// ApproveQuestionHandler marks a question approved.
func (s *Server) ApproveQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Questions.Approve(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.QuestionApproved)})
	}
}

// RejectQuestionHandler marks a question rejected.
func (s *Server) RejectQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Questions.Reject(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.QuestionRejected)})
	}
}

// DeleteQuestionHandler removes a question.
func (s *Server) DeleteQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Questions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
