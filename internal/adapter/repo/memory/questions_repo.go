package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// QuestionRepo is a mutex-guarded in-memory question store.
type QuestionRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Question
	byHash map[string]string // unique_hash -> id
}

// NewQuestionRepo constructs an empty in-memory question store.
func NewQuestionRepo() *QuestionRepo {
	return &QuestionRepo{
		byID:   make(map[string]*domain.Question),
		byHash: make(map[string]string),
	}
}

// CreatePendingIfNotExists inserts the question unless one with the same
// unique hash exists, in which case the existing row is returned.
func (r *QuestionRepo) CreatePendingIfNotExists(_ domain.Context, q domain.Question) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byHash[q.UniqueHash]; ok {
		return *r.byID[id], nil
	}
	stored := q
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.Status = domain.QuestionPending
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = nil
	r.byID[stored.ID] = &stored
	r.byHash[stored.UniqueHash] = stored.ID
	return stored, nil
}

// ListByUser returns a user's questions, most recently changed first.
func (r *QuestionRepo) ListByUser(_ domain.Context, userID string) ([]domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Question
	for _, q := range r.byID {
		if q.UserID == userID {
			out = append(out, *q)
		}
	}
	changed := func(q domain.Question) time.Time {
		if q.UpdatedAt != nil {
			return *q.UpdatedAt
		}
		return q.CreatedAt
	}
	sort.Slice(out, func(a, b int) bool { return changed(out[a]).After(changed(out[b])) })
	return out, nil
}

// FindByID loads a question by id.
func (r *QuestionRepo) FindByID(_ domain.Context, id string) (domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.byID[id]
	if !ok {
		return domain.Question{}, fmt.Errorf("op=question.get id=%s: %w", id, domain.ErrNotFound)
	}
	return *q, nil
}

// Update replaces the editable fields of a question.
func (r *QuestionRepo) Update(_ domain.Context, q domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[q.ID]
	if !ok {
		return fmt.Errorf("op=question.update id=%s: %w", q.ID, domain.ErrNotFound)
	}
	delete(r.byHash, existing.UniqueHash)
	now := time.Now().UTC()
	updated := q
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = &now
	r.byID[q.ID] = &updated
	r.byHash[updated.UniqueHash] = q.ID
	return nil
}

// SetStatus updates only the curation status.
func (r *QuestionRepo) SetStatus(_ domain.Context, id string, status domain.QuestionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("op=question.set_status id=%s: %w", id, domain.ErrNotFound)
	}
	now := time.Now().UTC()
	q.Status = status
	q.UpdatedAt = &now
	return nil
}

// Delete removes a question.
func (r *QuestionRepo) Delete(_ domain.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("op=question.delete id=%s: %w", id, domain.ErrNotFound)
	}
	delete(r.byHash, q.UniqueHash)
	delete(r.byID, id)
	return nil
}
