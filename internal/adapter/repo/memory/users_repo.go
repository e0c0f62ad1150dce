package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// UserRepo is a mutex-guarded in-memory user store keyed per audience.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // audience + "\x00" + username
}

// NewUserRepo constructs an empty in-memory user store.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*domain.User)}
}

func userKey(audience, username string) string { return audience + "\x00" + username }

// Create inserts a user; a taken username in the audience yields ErrConflict.
func (r *UserRepo) Create(_ domain.Context, u domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := userKey(u.Audience, u.Username)
	if _, ok := r.users[k]; ok {
		return "", fmt.Errorf("op=user.create username=%s: %w", u.Username, domain.ErrConflict)
	}
	stored := u
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.CreatedAt = time.Now().UTC()
	r.users[k] = &stored
	return stored.ID, nil
}

// FindByUsername loads a user within an audience.
func (r *UserRepo) FindByUsername(_ domain.Context, audience, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userKey(audience, username)]
	if !ok {
		return domain.User{}, fmt.Errorf("op=user.find username=%s: %w", username, domain.ErrNotFound)
	}
	return *u, nil
}
