package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lukeeterna/dropevolution-api/internal/auth"
	"github.com/lukeeterna/dropevolution-api/internal/domain"
	"github.com/lukeeterna/dropevolution-api/internal/repository"
	apperrors "github.com/lukeeterna/dropevolution-api/pkg/util"
)

// AuthService coordinates registration and login flows. Tokens are
// stateless JWTs, so there is no logout beyond client-side discard.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	clock      func() time.Time
}

// NewAuthService builds the service. A nil clock defaults to time.Now.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, clock func() time.Time) *AuthService {
	if clock == nil {
		clock = time.Now
	}
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost, clock: clock}
}

// Register creates a new account and returns a freshly issued token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, *domain.Token, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", nil, apperrors.NewValidationError("email already registered", map[string]any{"field": "email"})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", nil, err
	}

	signed, meta, err := s.tokens.Issue(user.ID, s.clock())
	if err != nil {
		return nil, "", nil, err
	}
	return user, signed, meta, nil
}

// Login authenticates by email and password. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, *domain.Token, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", nil, apperrors.NewInvalidCredentials("invalid email or password")
		}
		return nil, "", nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", nil, apperrors.NewInvalidCredentials("invalid email or password")
	}
	if !user.Active {
		return nil, "", nil, apperrors.NewPermissionDenied("account is inactive")
	}

	signed, meta, err := s.tokens.Issue(user.ID, s.clock())
	if err != nil {
		return nil, "", nil, err
	}
	return user, signed, meta, nil
}
