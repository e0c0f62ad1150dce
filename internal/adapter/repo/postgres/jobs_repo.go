package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// JobRepo persists and loads score jobs from PostgreSQL using a minimal pgx pool.
type JobRepo struct{ Pool PgxPool }

// NewJobRepo constructs a JobRepo with the given pool.
func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

const jobColumns = `id, key, question, reference_answer, user_answer, status, score, analysis, error, created_at, updated_at`

func scanJob(row pgx.Row) (domain.ScoreJob, error) {
	var j domain.ScoreJob
	err := row.Scan(&j.ID, &j.Key, &j.Question, &j.ReferenceAnswer, &j.UserAnswer,
		&j.Status, &j.Score, &j.Analysis, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

// Enqueue inserts a new pending job and returns its id.
func (r *JobRepo) Enqueue(ctx domain.Context, j domain.ScoreJob) (string, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Enqueue")
	defer span.End()
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO score_jobs (id, key, question, reference_answer, user_answer, status, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.Pool.Exec(ctx, q, id, j.Key, j.Question, j.ReferenceAnswer, j.UserAnswer, domain.JobPending, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=job.enqueue: %w", err)
	}
	return id, nil
}

// ClaimNextPending atomically transitions the oldest pending job to
// processing and returns it. The claim is a single conditional UPDATE over a
// SKIP LOCKED subselect, so concurrent claimers can never receive the same
// row. Returns (nil, nil) when no pending job exists.
func (r *JobRepo) ClaimNextPending(ctx domain.Context) (*domain.ScoreJob, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.ClaimNextPending")
	defer span.End()
	q := `UPDATE score_jobs SET status=$1, updated_at=$2
	WHERE id = (
		SELECT id FROM score_jobs WHERE status=$3
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	)
	RETURNING ` + jobColumns
	j, err := scanJob(r.Pool.QueryRow(ctx, q, domain.JobProcessing, time.Now().UTC(), domain.JobPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("op=job.claim: %w", err)
	}
	return &j, nil
}

// CompleteJob marks a job done with its score and analysis. Unknown ids are
// silently ignored.
func (r *JobRepo) CompleteJob(ctx domain.Context, id string, score float64, analysis string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.CompleteJob")
	defer span.End()
	q := `UPDATE score_jobs SET status=$2, score=$3, analysis=$4, error='', updated_at=$5 WHERE id=$1`
	_, err := r.Pool.Exec(ctx, q, id, domain.JobDone, score, analysis, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=job.complete: %w", err)
	}
	return nil
}

// FailJob marks a job failed with the given message. Unknown ids are
// silently ignored.
func (r *JobRepo) FailJob(ctx domain.Context, id string, errMsg string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.FailJob")
	defer span.End()
	q := `UPDATE score_jobs SET status=$2, error=$3, updated_at=$4 WHERE id=$1`
	_, err := r.Pool.Exec(ctx, q, id, domain.JobError, errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=job.fail: %w", err)
	}
	return nil
}

// FindLatestDoneByKey returns the most recently updated done job for the
// correlation key, or (nil, nil) when none exists.
func (r *JobRepo) FindLatestDoneByKey(ctx domain.Context, key string) (*domain.ScoreJob, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.FindLatestDoneByKey")
	defer span.End()
	q := `SELECT ` + jobColumns + ` FROM score_jobs WHERE key=$1 AND status=$2 ORDER BY updated_at DESC LIMIT 1`
	j, err := scanJob(r.Pool.QueryRow(ctx, q, key, domain.JobDone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("op=job.latest_done: %w", err)
	}
	return &j, nil
}

// FindByID loads a job by id.
func (r *JobRepo) FindByID(ctx domain.Context, id string) (domain.ScoreJob, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.FindByID")
	defer span.End()
	q := `SELECT ` + jobColumns + ` FROM score_jobs WHERE id=$1`
	j, err := scanJob(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ScoreJob{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
		}
		return domain.ScoreJob{}, fmt.Errorf("op=job.get: %w", err)
	}
	return j, nil
}

// FindStaleProcessing lists processing jobs whose last transition happened
// before cutoff, oldest first. Used by the stuck-job sweeper.
func (r *JobRepo) FindStaleProcessing(ctx domain.Context, cutoff time.Time, limit int) ([]domain.ScoreJob, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.FindStaleProcessing")
	defer span.End()
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + jobColumns + ` FROM score_jobs WHERE status=$1 AND updated_at < $2 ORDER BY updated_at ASC LIMIT $3`
	rows, err := r.Pool.Query(ctx, q, domain.JobProcessing, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("op=job.stale: %w", err)
	}
	defer rows.Close()
	var out []domain.ScoreJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("op=job.stale: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=job.stale: %w", err)
	}
	return out, nil
}
