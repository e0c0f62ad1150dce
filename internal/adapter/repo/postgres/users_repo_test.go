package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

func TestUserRepo_Create(t *testing.T) {
	t.Parallel()
	pool := &fakePool{}
	repo := postgres.NewUserRepo(pool)

	id, err := repo.Create(context.Background(), domain.User{Audience: domain.AudienceAdmin, Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Contains(t, pool.execSQL[0], "INSERT INTO users")
}

func TestUserRepo_Create_DuplicateMapsToConflict(t *testing.T) {
	t.Parallel()
	pool := &fakePool{execErr: errors.New(`ERROR: duplicate key value violates unique constraint "users_audience_username_key" (SQLSTATE 23505)`)}
	repo := postgres.NewUserRepo(pool)

	_, err := repo.Create(context.Background(), domain.User{Audience: domain.AudienceAdmin, Username: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_FindByUsername(t *testing.T) {
	t.Parallel()
	pool := &fakePool{row: userRow{u: domain.User{
		ID: "u1", Audience: domain.AudienceClient, Username: "bob", PasswordHash: "h", CreatedAt: time.Now().UTC(),
	}}}
	repo := postgres.NewUserRepo(pool)

	u, err := repo.FindByUsername(context.Background(), domain.AudienceClient, "bob")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, []any{domain.AudienceClient, "bob"}, pool.queryRowArgs[0])
}

func TestUserRepo_FindByUsername_NotFound(t *testing.T) {
	t.Parallel()
	pool := &fakePool{row: userRow{err: pgx.ErrNoRows}}
	repo := postgres.NewUserRepo(pool)

	_, err := repo.FindByUsername(context.Background(), domain.AudienceAdmin, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
