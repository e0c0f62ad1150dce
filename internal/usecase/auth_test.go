package usecase_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/usecase"
)

type fakeUserRepo struct {
	users map[string]domain.User // keyed by audience+"/"+username
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Create(_ domain.Context, u domain.User) (string, error) {
	k := u.Audience + "/" + u.Username
	if _, ok := r.users[k]; ok {
		return "", fmt.Errorf("op=user.create: %w", domain.ErrConflict)
	}
	u.ID = uuid.New().String()
	r.users[k] = u
	return u.ID, nil
}

func (r *fakeUserRepo) FindByUsername(_ domain.Context, audience, username string) (domain.User, error) {
	u, ok := r.users[audience+"/"+username]
	if !ok {
		return domain.User{}, fmt.Errorf("op=user.find: %w", domain.ErrNotFound)
	}
	return u, nil
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	id, err := svc.Register(ctx, domain.AudienceAdmin, "alice", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	u, err := svc.Login(ctx, domain.AudienceAdmin, "alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
}

func TestAuth_Register_DuplicateConflicts(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.AudienceClient, "bob", "password-1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.AudienceClient, "bob", "password-2")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAuth_SameUsernameAcrossAudiences(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.AudienceAdmin, "carol", "password-1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.AudienceClient, "carol", "password-2")
	assert.NoError(t, err)

	_, err = svc.Login(ctx, domain.AudienceAdmin, "carol", "password-2")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuth_Login_BadCredentials(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.AudienceAdmin, "dave", "password-1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.AudienceAdmin, "dave", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Login(ctx, domain.AudienceAdmin, "nobody", "password-1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuth_Register_Validation(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "other", "alice", "password-1")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.Register(ctx, domain.AudienceAdmin, "", "password-1")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.Register(ctx, domain.AudienceAdmin, "alice", "short")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
