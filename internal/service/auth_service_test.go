package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lukeeterna/dropevolution-api/internal/auth"
	"github.com/lukeeterna/dropevolution-api/internal/domain"
	apperrors "github.com/lukeeterna/dropevolution-api/pkg/util"
)

type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.nextID++
	user.ID = "user-" + strconv.Itoa(r.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.byID[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	user, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Active = active
	return nil
}

func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenManager("service-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return NewAuthService(repo, tokens, bcrypt.MinCost, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	user, token, meta, err := svc.Register(ctx, "Ada", "ada@example.com", "hunter2!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" || meta.ID == "" {
		t.Fatal("registration should issue a token")
	}
	if !user.Active {
		t.Fatal("new accounts start active")
	}
	if user.PasswordHash == "hunter2!" {
		t.Fatal("password must be stored hashed")
	}

	loggedIn, token2, _, err := svc.Login(ctx, "ada@example.com", "hunter2!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("login returned user %q, want %q", loggedIn.ID, user.ID)
	}
	if token2 == "" {
		t.Fatal("login should issue a token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, _, _, err := svc.Register(ctx, "Ada", "ada@example.com", "hunter2!"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, _, _, err := svc.Register(ctx, "Eve", "ada@example.com", "hunter3!")
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != apperrors.KindValidationError {
		t.Fatalf("expected validation_error, got %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	if _, _, _, err := svc.Register(ctx, "Ada", "ada@example.com", "hunter2!"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Unknown email and wrong password produce the same error kind.
	for _, tc := range []struct{ email, password string }{
		{"nobody@example.com", "hunter2!"},
		{"ada@example.com", "wrong"},
	} {
		_, _, _, err := svc.Login(ctx, tc.email, tc.password)
		var apiErr *apperrors.APIError
		if !errors.As(err, &apiErr) || apiErr.Kind != apperrors.KindInvalidCredentials {
			t.Fatalf("%s: expected invalid_credentials, got %v", tc.email, err)
		}
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	user, _, _, err := svc.Register(ctx, "Ada", "ada@example.com", "hunter2!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := repo.SetActive(ctx, user.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	_, _, _, err = svc.Login(ctx, "ada@example.com", "hunter2!")
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != apperrors.KindPermissionDenied {
		t.Fatalf("expected permission_denied, got %v", err)
	}
}
