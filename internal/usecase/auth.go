package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

const minPasswordLen = 8

// AuthService registers and authenticates accounts. Admin and client
// audiences are separate namespaces; the same username can exist in both.
type AuthService struct {
	users domain.UserRepository
}

func NewAuthService(users domain.UserRepository) AuthService {
	return AuthService{users: users}
}

// Register creates an account and returns its id. A taken username in the
// same audience yields ErrConflict.
func (s AuthService) Register(ctx domain.Context, audience, username, password string) (string, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "auth.register")
	defer span.End()

	if err := validateAudience(audience); err != nil {
		return "", err
	}
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("username is required: %w", domain.ErrInvalidArgument)
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, domain.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("op=auth.register hash: %w", err)
	}
	return s.users.Create(ctx, domain.User{
		Audience:     audience,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
}

// Login checks credentials and returns the account. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s AuthService) Login(ctx domain.Context, audience, username, password string) (domain.User, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "auth.login")
	defer span.End()

	if err := validateAudience(audience); err != nil {
		return domain.User{}, err
	}
	u, err := s.users.FindByUsername(ctx, audience, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return u, nil
}

func validateAudience(audience string) error {
	if audience != domain.AudienceAdmin && audience != domain.AudienceClient {
		return fmt.Errorf("unknown audience %q: %w", audience, domain.ErrInvalidArgument)
	}
	return nil
}
