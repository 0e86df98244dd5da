package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mweigel/agentportal/internal/domain"
	"github.com/mweigel/agentportal/internal/repository/sqlite"
	"github.com/mweigel/agentportal/internal/service"
)

const testSecretKey = "test-secret-key-for-unit-tests-0123456789"

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	// Use cost 4 for fast tests.
	return service.NewAuthService(db.Users(), testSecretKey, 4), db
}

func TestAuthService_Register_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "new@example.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}
	if user.Email != "new@example.com" {
		t.Fatalf("expected email new@example.com, got %s", user.Email)
	}
	if user.PasswordHash == "password123" {
		t.Fatal("password must never be stored in plaintext")
	}
	if user.IsPremium {
		t.Fatal("expected new user to start without premium")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dup@example.com", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := auth.Register(ctx, "dup@example.com", "password456")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_Register_ShortPasswordAccepted(t *testing.T) {
	// There is intentionally no password-strength policy.
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "short@example.com", "x"); err != nil {
		t.Fatalf("Register with short password: %v", err)
	}
}

func TestAuthService_Register_EmptyFields(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "password123"},
		{"empty password", "a@b.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tt.email, tt.password)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "login@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := auth.Login(ctx, "login@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	userID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID == 0 {
		t.Fatal("expected a user ID from the token")
	}
}

func TestAuthService_Login_WrongPasswordAndUnknownEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "someone@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Wrong password and unknown email must be indistinguishable.
	_, errWrong := auth.Login(ctx, "someone@example.com", "wrongpassword")
	_, errUnknown := auth.Login(ctx, "nobody@example.com", "password123")

	if !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrong)
	}
	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", errUnknown)
	}
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	auth, _ := newTestAuthService(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := auth.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("token %q: expected ErrUnauthorized, got %v", token, err)
		}
	}
}

func TestAuthService_UpdateEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "before@example.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := auth.UpdateEmail(ctx, user, "after@example.com"); err != nil {
		t.Fatalf("UpdateEmail: %v", err)
	}
	if user.Email != "after@example.com" {
		t.Fatalf("expected entity email to be updated, got %s", user.Email)
	}

	if _, err := auth.Login(ctx, "after@example.com", "password123"); err != nil {
		t.Fatalf("login with new email: %v", err)
	}
}

func TestAuthService_UpdatePassword(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "rotate@example.com", "oldpassword")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := auth.UpdatePassword(ctx, user, "newpassword"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	if _, err := auth.Login(ctx, "rotate@example.com", "oldpassword"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, err := auth.Login(ctx, "rotate@example.com", "newpassword"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
