// Package worker runs the scoring loop: claim a pending job, call the
// upstream scorer, persist the outcome, then broadcast it.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// Worker is the single consumer of the pending-job queue. Run one per
// process; the store-level atomic claim keeps multiple processes safe.
type Worker struct {
	jobs         domain.JobRepository
	scorer       domain.Scorer
	hub          domain.Notifier
	pollInterval time.Duration
	errorBackoff time.Duration
}

// New builds a Worker. pollInterval is the idle sleep when no job is
// pending; errorBackoff the sleep after a claim/store failure.
func New(jobs domain.JobRepository, scorer domain.Scorer, hub domain.Notifier, pollInterval, errorBackoff time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if errorBackoff <= 0 {
		errorBackoff = 2 * time.Second
	}
	return &Worker{
		jobs:         jobs,
		scorer:       scorer,
		hub:          hub,
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
	}
}

// Run polls until ctx is cancelled. A failing iteration never stops the
// loop; it logs, backs off, and keeps going.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("score worker started", slog.Duration("poll_interval", w.pollInterval))
	for {
		if ctx.Err() != nil {
			slog.Info("score worker stopped")
			return
		}
		processed, err := w.runOnce(ctx)
		switch {
		case err != nil:
			slog.Error("score worker iteration failed", slog.Any("error", err))
			if !sleep(ctx, w.errorBackoff) {
				slog.Info("score worker stopped")
				return
			}
		case !processed:
			if !sleep(ctx, w.pollInterval) {
				slog.Info("score worker stopped")
				return
			}
		}
	}
}

// runOnce claims and processes at most one job. It reports whether a job
// was claimed; errors from the scorer are job failures, not loop errors.
func (w *Worker) runOnce(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimNextPending(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	w.process(ctx, job)
	return true, nil
}

func (w *Worker) process(ctx context.Context, job *domain.ScoreJob) {
	ctx, span := otel.Tracer("worker").Start(ctx, "worker.process")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", job.ID), attribute.String("key", job.Key))

	observability.StartProcessingJob()
	start := time.Now()

	score, analysis, err := w.scorer.Score(ctx, job.Key, job.Question, job.ReferenceAnswer, job.UserAnswer)
	if err != nil {
		slog.Error("scoring failed",
			slog.String("job_id", job.ID),
			slog.String("key", job.Key),
			slog.Any("error", err))
		if ferr := w.jobs.FailJob(ctx, job.ID, err.Error()); ferr != nil {
			slog.Error("failed to mark job as error", slog.String("job_id", job.ID), slog.Any("error", ferr))
		}
		observability.FailJob()
		w.publish(ctx, domain.ScoreEvent{
			Type:      "error",
			ID:        job.ID,
			Key:       job.Key,
			Error:     err.Error(),
			UpdatedAt: time.Now().UTC(),
		})
		return
	}

	// Persist before publishing so a subscriber reacting to the event
	// always finds the result in the store.
	if err := w.jobs.CompleteJob(ctx, job.ID, score, analysis); err != nil {
		slog.Error("failed to mark job as done", slog.String("job_id", job.ID), slog.Any("error", err))
		observability.FailJob()
		return
	}
	observability.CompleteJob(score)
	slog.Info("job scored",
		slog.String("job_id", job.ID),
		slog.String("key", job.Key),
		slog.Float64("score", score),
		slog.Duration("elapsed", time.Since(start)))
	w.publish(ctx, domain.ScoreEvent{
		Type:      "done",
		ID:        job.ID,
		Key:       job.Key,
		Score:     &score,
		Analysis:  analysis,
		UpdatedAt: time.Now().UTC(),
	})
}

func (w *Worker) publish(ctx context.Context, ev domain.ScoreEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal score event", slog.Any("error", err))
		return
	}
	w.hub.Publish(ctx, ev.Key, payload)
}

// sleep waits for d or cancellation; it reports false when ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
