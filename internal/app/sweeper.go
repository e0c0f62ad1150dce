package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// StuckJobSweeper marks jobs stuck in processing as errored so a crashed
// worker cannot strand them forever. Swept jobs are not requeued; the
// client resubmits.
type StuckJobSweeper struct {
	jobs             domain.JobRepository
	maxProcessingAge time.Duration
	interval         time.Duration
}

// NewStuckJobSweeper returns nil when maxProcessingAge is zero, which
// disables sweeping.
func NewStuckJobSweeper(jobs domain.JobRepository, maxProcessingAge, interval time.Duration) *StuckJobSweeper {
	if jobs == nil || maxProcessingAge <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &StuckJobSweeper{
		jobs:             jobs,
		maxProcessingAge: maxProcessingAge,
		interval:         interval,
	}
}

func (s *StuckJobSweeper) Run(ctx context.Context) {
	if s == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stuck job sweeper stopping")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *StuckJobSweeper) sweepOnce(ctx context.Context) {
	tracer := otel.Tracer("jobs.sweeper")
	ctx, span := tracer.Start(ctx, "StuckJobSweeper.sweepOnce")
	defer span.End()

	const pageSize = 100
	cutoff := time.Now().Add(-s.maxProcessingAge)
	span.SetAttributes(
		attribute.Float64("jobs.max_processing_age_seconds", s.maxProcessingAge.Seconds()),
	)

	marked := 0
	for {
		stale, err := s.jobs.FindStaleProcessing(ctx, cutoff, pageSize)
		if err != nil {
			span.RecordError(err)
			slog.Error("stuck job sweep failed to list jobs", slog.Any("error", err))
			return
		}
		if len(stale) == 0 {
			break
		}
		markedThisPage := 0
		for _, j := range stale {
			msg := fmt.Sprintf("job processing exceeded maximum age %v; marked as error by sweeper", s.maxProcessingAge)
			if err := s.jobs.FailJob(ctx, j.ID, msg); err != nil {
				slog.Error("stuck job sweep failed to mark job", slog.String("job_id", j.ID), slog.Any("error", err))
				continue
			}
			markedThisPage++
		}
		marked += markedThisPage
		// A page where nothing moved would repeat forever; bail out.
		if len(stale) < pageSize || markedThisPage == 0 {
			break
		}
	}

	if marked > 0 {
		slog.Warn("stuck jobs swept", slog.Int("count", marked))
	}
	span.SetAttributes(attribute.Int("jobs.marked_error", marked))
}
