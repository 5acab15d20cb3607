package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-watchlist/internal/repository"
	"github.com/iliyamo/movie-watchlist/internal/utils"
)

// AuthConfig holds the knobs for password hashing and session issuing.
type AuthConfig struct {
	Secret     string
	SessionTTL time.Duration
	BcryptCost int
}

// Session is what a successful register or login hands back to the
// transport: who logged in and the signed cookie value.
type Session struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// AuthService implements registration, login, logout and cookie checks.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	cfg      AuthConfig
	log      *zap.Logger
	now      func() time.Time

	// dummyHash is compared against when the email is unknown so that
	// both login failures cost one bcrypt comparison.
	dummyHash string
}

// NewAuthService wires the auth service to its stores.
func NewAuthService(users UserStore, sessions SessionStore, cfg AuthConfig, log *zap.Logger) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	dummy, _ := utils.HashPassword("not-a-real-password", cfg.BcryptCost)
	return &AuthService{
		users:     users,
		sessions:  sessions,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register creates an account and logs the new user in. Only the bcrypt
// hash of the password is stored.
func (s *AuthService) Register(ctx context.Context, form RegisterForm) (Session, error) {
	form, err := ValidateRegistration(form)
	if err != nil {
		return Session{}, err
	}
	hash, err := utils.HashPassword(form.Password, s.cfg.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	uid, err := s.users.Create(ctx, form.Email, hash, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, fieldErr("email", ErrDuplicateEmail, msgDuplicate)
		}
		s.log.Error("create user failed", zap.String("op", "register"), zap.Error(err))
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", zap.Uint64("user_id", uid))
	return s.issue(ctx, Identity{UserID: uid, Email: form.Email})
}

// Login verifies credentials and issues a persistent session. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, form LoginForm) (Session, error) {
	form, err := ValidateLogin(form)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.GetByEmail(ctx, form.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.VerifyPassword(s.dummyHash, form.Password)
			return Session{}, ErrInvalidCredentials
		}
		s.log.Error("load user failed", zap.String("op", "login"), zap.Error(err))
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, form.Password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(ctx, Identity{UserID: u.ID, Email: u.Email})
}

func (s *AuthService) issue(ctx context.Context, id Identity) (Session, error) {
	tok, err := utils.NewSessionToken(s.cfg.Secret, id.UserID, s.cfg.SessionTTL)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	if err := s.sessions.Create(ctx, id.UserID, utils.HashSessionID(tok.SessionID), tok.Exp); err != nil {
		s.log.Error("store session failed", zap.Uint64("user_id", id.UserID), zap.Error(err))
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return Session{Identity: id, Token: tok.Token, ExpiresAt: tok.Exp}, nil
}

// Authenticate resolves a session cookie to the caller's identity. Any
// invalid, expired or revoked cookie yields ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, cookie string) (Identity, error) {
	if cookie == "" {
		return Identity{}, ErrUnauthenticated
	}
	claims, err := utils.ParseSessionToken(s.cfg.Secret, cookie)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}
	uid, err := s.sessions.Validate(ctx, utils.HashSessionID(claims.SessionID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("validate session: %w", err)
	}
	if uid != claims.UserID {
		return Identity{}, ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("load user: %w", err)
	}
	return Identity{UserID: u.ID, Email: u.Email}, nil
}

// Logout revokes the session behind cookie. It is a no-op for empty or
// invalid cookies.
func (s *AuthService) Logout(ctx context.Context, cookie string) error {
	if cookie == "" {
		return nil
	}
	claims, err := utils.ParseSessionToken(s.cfg.Secret, cookie)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, utils.HashSessionID(claims.SessionID)); err != nil {
		s.log.Error("revoke session failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
