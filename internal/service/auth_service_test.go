package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-watchlist/internal/testsupport"
	"github.com/iliyamo/movie-watchlist/internal/utils"
)

func newAuth(t *testing.T) (*AuthService, *testsupport.Users, *testsupport.Sessions) {
	t.Helper()
	users := testsupport.NewUsers()
	sessions := testsupport.NewSessions()
	svc := NewAuthService(users, sessions, AuthConfig{
		Secret:     "test-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, zap.NewNop())
	return svc, users, sessions
}

func register(t *testing.T, svc *AuthService, email string) Session {
	t.Helper()
	sess, err := svc.Register(context.Background(), RegisterForm{Email: email, Password: "pw1234", ConfirmPassword: "pw1234"})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return sess
}

func TestRegisterStartsSession(t *testing.T) {
	svc, users, _ := newAuth(t)
	ctx := context.Background()

	sess := register(t, svc, "A@x.com")
	if sess.Identity.UserID == 0 || sess.Identity.Email != "a@x.com" {
		t.Fatalf("identity = %+v", sess.Identity)
	}

	u, err := users.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.PasswordHash == "pw1234" || !utils.VerifyPassword(u.PasswordHash, "pw1234") {
		t.Fatalf("stored hash %q does not verify or is plaintext", u.PasswordHash)
	}

	id, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id != sess.Identity {
		t.Fatalf("Authenticate = %+v, want %+v", id, sess.Identity)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, _ := newAuth(t)
	register(t, svc, "a@x.com")

	_, err := svc.Register(context.Background(), RegisterForm{Email: "a@x.com", Password: "other1", ConfirmPassword: "other1"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("error = %v, want ErrDuplicateEmail", err)
	}
	if users.Count() != 1 {
		t.Fatalf("users = %d, want 1", users.Count())
	}
	u, _ := users.GetByEmail(context.Background(), "a@x.com")
	if !utils.VerifyPassword(u.PasswordHash, "pw1234") {
		t.Fatal("existing user's password changed")
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuth(t)
	register(t, svc, "a@x.com")
	ctx := context.Background()

	if _, err := svc.Login(ctx, LoginForm{Email: "a@x.com", Password: "pw1234"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	for _, form := range []LoginForm{
		{Email: "a@x.com", Password: "wrong"},
		{Email: "nobody@x.com", Password: "pw1234"},
	} {
		if _, err := svc.Login(ctx, form); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%s) error = %v, want ErrInvalidCredentials", form.Email, err)
		}
	}

	if _, err := svc.Login(ctx, LoginForm{}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("Login(empty) error = %v, want ErrMissingField", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := newAuth(t)
	ctx := context.Background()
	sess := register(t, svc, "a@x.com")

	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, sess.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Authenticate after logout error = %v, want ErrUnauthenticated", err)
	}
	if sessions.Active() != 0 {
		t.Fatalf("active sessions = %d, want 0", sessions.Active())
	}

	// Logging out twice or without a cookie is a no-op.
	for _, cookie := range []string{sess.Token, "", "garbage"} {
		if err := svc.Logout(ctx, cookie); err != nil {
			t.Errorf("Logout(%q) error = %v", cookie, err)
		}
	}
}

func TestAuthenticateRejects(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	register(t, svc, "a@x.com")

	forged, err := utils.NewSessionToken("other-secret", 1, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	// Correctly signed but never stored.
	unknown, err := utils.NewSessionToken("test-secret", 1, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}

	for name, cookie := range map[string]string{
		"empty":   "",
		"garbage": "not-a-jwt",
		"forged":  forged.Token,
		"unknown": unknown.Token,
	} {
		if _, err := svc.Authenticate(ctx, cookie); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("%s: error = %v, want ErrUnauthenticated", name, err)
		}
	}
}
