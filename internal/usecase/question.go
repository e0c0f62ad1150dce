package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// QuestionService generates quiz questions through the upstream app and
// curates them: generated questions land as pending and must be approved
// before use.
type QuestionService struct {
	questions domain.QuestionRepository
	generator domain.QuestionGenerator
}

func NewQuestionService(questions domain.QuestionRepository, generator domain.QuestionGenerator) QuestionService {
	return QuestionService{questions: questions, generator: generator}
}

// generatedQuestion is the shape the generation app is prompted to emit.
type generatedQuestion struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correctAnswers"`
	Answer         string   `json:"answer"`
}

// Generate asks the upstream for questions and stores each as pending.
// Re-generating identical material is a no-op thanks to the unique hash;
// the returned slice carries the stored rows, deduplicated.
func (s QuestionService) Generate(ctx domain.Context, userID, prompt string) ([]domain.Question, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "question.generate")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("userId is required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is required: %w", domain.ErrInvalidArgument)
	}

	content, err := s.generator.GenerateQuestion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("op=question.generate: %w", err)
	}

	parsed := parseGenerated(content)
	span.SetAttributes(attribute.Int("generated", len(parsed)))

	out := make([]domain.Question, 0, len(parsed))
	now := time.Now().UTC()
	for _, g := range parsed {
		q := domain.Question{
			UserID:         userID,
			Title:          g.Title,
			Content:        g.Content,
			Type:           g.Type,
			Options:        g.Options,
			CorrectAnswers: g.CorrectAnswers,
			Answer:         g.Answer,
			Status:         domain.QuestionPending,
			Source:         "generated",
			CreatedAt:      now,
		}
		if q.Type == "" {
			q.Type = "subjective"
		}
		q.UniqueHash = questionHash(userID, q.Title, q.Content)
		stored, err := s.questions.CreatePendingIfNotExists(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("op=question.generate store: %w", err)
		}
		out = append(out, stored)
	}
	return out, nil
}

// parseGenerated accepts a JSON array, a single JSON object, or, as a last
// resort, treats the whole text as one subjective question. Code fences
// around the JSON are stripped first.
func parseGenerated(content string) []generatedQuestion {
	trimmed := stripCodeFence(content)
	var many []generatedQuestion
	if err := json.Unmarshal([]byte(trimmed), &many); err == nil && len(many) > 0 {
		return many
	}
	var one generatedQuestion
	if err := json.Unmarshal([]byte(trimmed), &one); err == nil && (one.Title != "" || one.Content != "") {
		return []generatedQuestion{one}
	}
	return []generatedQuestion{{Content: content, Type: "subjective"}}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func questionHash(userID, title, content string) string {
	h := sha256.Sum256([]byte(userID + "\x00" + title + "\x00" + content))
	return hex.EncodeToString(h[:])
}

// List returns a user's questions, newest change first.
func (s QuestionService) List(ctx domain.Context, userID string) ([]domain.Question, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "question.list")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("userId is required: %w", domain.ErrInvalidArgument)
	}
	return s.questions.ListByUser(ctx, userID)
}

// UpdateInput carries the editable fields of a question.
type UpdateInput struct {
	ID             string
	Title          string
	Content        string
	Type           string
	Options        []string
	CorrectAnswers []string
	Answer         string
}

// Update edits a question in place. The unique hash is recomputed so an
// edited question no longer blocks re-generation of the original.
func (s QuestionService) Update(ctx domain.Context, in UpdateInput) (domain.Question, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "question.update")
	defer span.End()

	if strings.TrimSpace(in.ID) == "" {
		return domain.Question{}, fmt.Errorf("id is required: %w", domain.ErrInvalidArgument)
	}
	q, err := s.questions.FindByID(ctx, in.ID)
	if err != nil {
		return domain.Question{}, err
	}
	q.Title = in.Title
	q.Content = in.Content
	if in.Type != "" {
		q.Type = in.Type
	}
	q.Options = in.Options
	q.CorrectAnswers = in.CorrectAnswers
	q.Answer = in.Answer
	q.UniqueHash = questionHash(q.UserID, q.Title, q.Content)
	if err := s.questions.Update(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("op=question.update: %w", err)
	}
	return q, nil
}

// Approve marks a pending question as approved.
func (s QuestionService) Approve(ctx domain.Context, id string) error {
	return s.setStatus(ctx, id, domain.QuestionApproved)
}

// Reject marks a pending question as rejected.
func (s QuestionService) Reject(ctx domain.Context, id string) error {
	return s.setStatus(ctx, id, domain.QuestionRejected)
}

func (s QuestionService) setStatus(ctx domain.Context, id string, status domain.QuestionStatus) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, "question.set_status")
	defer span.End()
	span.SetAttributes(attribute.String("status", string(status)))

	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required: %w", domain.ErrInvalidArgument)
	}
	return s.questions.SetStatus(ctx, id, status)
}

// Delete removes a question permanently.
func (s QuestionService) Delete(ctx domain.Context, id string) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, "question.delete")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required: %w", domain.ErrInvalidArgument)
	}
	return s.questions.Delete(ctx, id)
}
