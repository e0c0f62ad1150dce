// Package memory provides an in-memory JobRepository honoring the same
// contract as the postgres implementation. It backs unit tests and local
// development without a database.
package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// JobRepo is a mutex-guarded in-memory job store.
type JobRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.ScoreJob
}

// NewJobRepo constructs an empty in-memory job store.
func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: make(map[string]*domain.ScoreJob)}
}

// Enqueue inserts a new pending job and returns its id.
func (r *JobRepo) Enqueue(_ domain.Context, j domain.ScoreJob) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	stored := j
	stored.ID = id
	stored.Status = domain.JobPending
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = nil
	r.jobs[id] = &stored
	return id, nil
}

// ClaimNextPending transitions the oldest pending job to processing under
// the store lock, mirroring the single-statement postgres claim.
func (r *JobRepo) ClaimNextPending(_ domain.Context) (*domain.ScoreJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *domain.ScoreJob
	for _, j := range r.jobs {
		if j.Status != domain.JobPending {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, nil
	}
	now := time.Now().UTC()
	oldest.Status = domain.JobProcessing
	oldest.UpdatedAt = &now
	cp := *oldest
	return &cp, nil
}

// CompleteJob marks a job done. Unknown ids are ignored.
func (r *JobRepo) CompleteJob(_ domain.Context, id string, score float64, analysis string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	j.Status = domain.JobDone
	j.Score = &score
	j.Analysis = analysis
	j.Error = ""
	j.UpdatedAt = &now
	return nil
}

// FailJob marks a job failed. Unknown ids are ignored.
func (r *JobRepo) FailJob(_ domain.Context, id string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	j.Status = domain.JobError
	j.Error = errMsg
	j.UpdatedAt = &now
	return nil
}

// FindLatestDoneByKey returns the most recently updated done job for the key.
func (r *JobRepo) FindLatestDoneByKey(_ domain.Context, key string) (*domain.ScoreJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.ScoreJob
	for _, j := range r.jobs {
		if j.Key != key || j.Status != domain.JobDone {
			continue
		}
		if latest == nil || (j.UpdatedAt != nil && latest.UpdatedAt != nil && j.UpdatedAt.After(*latest.UpdatedAt)) {
			latest = j
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// FindByID loads a job by id.
func (r *JobRepo) FindByID(_ domain.Context, id string) (domain.ScoreJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.ScoreJob{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
	}
	return *j, nil
}

// FindStaleProcessing lists processing jobs last touched before cutoff.
func (r *JobRepo) FindStaleProcessing(_ domain.Context, cutoff time.Time, limit int) ([]domain.ScoreJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	var out []domain.ScoreJob
	for _, j := range r.jobs {
		if j.Status == domain.JobProcessing && j.UpdatedAt != nil && j.UpdatedAt.Before(cutoff) {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.Before(*out[b].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
