package service

import (
	"context"
	"time"

	"github.com/iliyamo/movie-watchlist/internal/model"
	"github.com/iliyamo/movie-watchlist/internal/queue"
)

// Identity is the authenticated caller. Every movie operation takes it
// explicitly; a zero UserID means nobody is logged in.
type Identity struct {
	UserID uint64
	Email  string
}

// Authenticated reports whether the identity belongs to a logged-in user.
func (id Identity) Authenticated() bool { return id.UserID != 0 }

// UserStore persists user records. Implementations return
// repository.ErrNotFound and repository.ErrEmailExists.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, registeredAt time.Time) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SessionStore persists hashed session ids.
type SessionStore interface {
	Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string) (uint64, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// MovieStore persists movies and their child rows. Every mutating method
// is transactional and re-checks ownership, returning
// repository.ErrNotFound or repository.ErrForbidden without writing.
type MovieStore interface {
	CreateWithChildren(ctx context.Context, m *model.Movie, children model.Children) error
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Movie, error)
	Update(ctx context.Context, m *model.Movie) error
	SetRating(ctx context.Context, id, ownerID uint64, rating int) error
	SetLastWatched(ctx context.Context, id, ownerID uint64, at time.Time) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
	ListChildren(ctx context.Context, kind model.ChildKind, movieID uint64) ([]model.Child, error)
	AddChildren(ctx context.Context, kind model.ChildKind, movieID, ownerID uint64, values []string) error
	DeleteChild(ctx context.Context, kind model.ChildKind, childID, movieID, ownerID uint64) error
}

// ActivityPublisher receives an event after each committed change.
// Failures are logged by the caller and otherwise ignored.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }
