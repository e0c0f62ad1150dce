package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// UserRepo persists registered accounts for both audiences.
type UserRepo struct{ Pool PgxPool }

// NewUserRepo constructs a UserRepo with the given pool.
func NewUserRepo(p PgxPool) *UserRepo { return &UserRepo{Pool: p} }

// Create inserts a new user; a duplicate (audience, username) pair maps to
// domain.ErrConflict.
func (r *UserRepo) Create(ctx domain.Context, u domain.User) (string, error) {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.Create")
	defer span.End()
	id := u.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO users (id, audience, username, password_hash, created_at) VALUES ($1,$2,$3,$4,$5)`
	_, err := r.Pool.Exec(ctx, q, id, u.Audience, u.Username, u.PasswordHash, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return "", fmt.Errorf("op=user.create: %w", domain.ErrConflict)
		}
		return "", fmt.Errorf("op=user.create: %w", err)
	}
	return id, nil
}

// FindByUsername loads a user of the given audience by username.
func (r *UserRepo) FindByUsername(ctx domain.Context, audience, username string) (domain.User, error) {
	tracer := otel.Tracer("repo.users")
	ctx, span := tracer.Start(ctx, "users.FindByUsername")
	defer span.End()
	q := `SELECT id, audience, username, password_hash, created_at FROM users WHERE audience=$1 AND username=$2`
	row := r.Pool.QueryRow(ctx, q, audience, username)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Audience, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("op=user.find: %w", domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("op=user.find: %w", err)
	}
	return u, nil
}
