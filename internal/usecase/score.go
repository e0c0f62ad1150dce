// Package usecase wires domain ports into the application's operations.
package usecase

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// ScoreService accepts answer submissions and exposes job state to the
// polling and streaming endpoints. Scoring itself happens in the worker.
type ScoreService struct {
	jobs domain.JobRepository
}

func NewScoreService(jobs domain.JobRepository) ScoreService {
	return ScoreService{jobs: jobs}
}

// SubmitInput is one answer to be scored asynchronously.
type SubmitInput struct {
	Key             string
	Question        string
	ReferenceAnswer string
	UserAnswer      string
}

// Submit validates and enqueues a scoring job, returning its id.
func (s ScoreService) Submit(ctx domain.Context, in SubmitInput) (string, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "score.submit")
	defer span.End()

	if strings.TrimSpace(in.Key) == "" {
		return "", fmt.Errorf("key is required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.Question) == "" {
		return "", fmt.Errorf("question is required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.UserAnswer) == "" {
		return "", fmt.Errorf("userAnswer is required: %w", domain.ErrInvalidArgument)
	}

	id, err := s.jobs.Enqueue(ctx, domain.ScoreJob{
		Key:             in.Key,
		Question:        in.Question,
		ReferenceAnswer: in.ReferenceAnswer,
		UserAnswer:      in.UserAnswer,
		Status:          domain.JobPending,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("op=score.submit: %w", err)
	}
	span.SetAttributes(attribute.String("job.id", id))
	observability.EnqueueJob()
	return id, nil
}

// Status returns the job with the given id, regardless of its state.
func (s ScoreService) Status(ctx domain.Context, id string) (domain.ScoreJob, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "score.status")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return domain.ScoreJob{}, fmt.Errorf("id is required: %w", domain.ErrInvalidArgument)
	}
	return s.jobs.FindByID(ctx, id)
}

// Next returns the most recently completed job for a key, or nil when no
// completed job exists yet.
func (s ScoreService) Next(ctx domain.Context, key string) (*domain.ScoreJob, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "score.next")
	defer span.End()

	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("key is required: %w", domain.ErrInvalidArgument)
	}
	return s.jobs.FindLatestDoneByKey(ctx, key)
}
