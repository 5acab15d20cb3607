package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-watchlist/internal/model"
	"github.com/iliyamo/movie-watchlist/internal/queue"
	"github.com/iliyamo/movie-watchlist/internal/repository"
)

// MovieService enforces who may see and change a movie, validates input
// and applies the rating and watched-date transitions. Every method takes
// the caller explicitly.
type MovieService struct {
	movies   MovieStore
	activity ActivityPublisher
	log      *zap.Logger
	now      func() time.Time
}

// NewMovieService wires the movie service. A nil publisher disables the
// activity feed.
func NewMovieService(movies MovieStore, activity ActivityPublisher, log *zap.Logger) *MovieService {
	if activity == nil {
		activity = nopPublisher{}
	}
	return &MovieService{movies: movies, activity: activity, log: log, now: time.Now}
}

// List returns the caller's movies. The owner filter is part of the query.
func (s *MovieService) List(ctx context.Context, caller Identity) ([]*model.Movie, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	movies, err := s.movies.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, s.fail("list", caller, 0, err)
	}
	return movies, nil
}

// Authorize loads a movie and checks the caller owns it.
func (s *MovieService) Authorize(ctx context.Context, caller Identity, movieID uint64) (*model.Movie, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	m, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, s.fail("load", caller, movieID, err)
	}
	if m.OwnerID != caller.UserID {
		s.log.Warn("forbidden movie access",
			zap.Uint64("user_id", caller.UserID), zap.Uint64("movie_id", movieID))
		return nil, ErrForbidden
	}
	return m, nil
}

// Get returns a movie with its tags, cast and series.
func (s *MovieService) Get(ctx context.Context, caller Identity, movieID uint64) (*model.MovieDetails, error) {
	m, err := s.Authorize(ctx, caller, movieID)
	if err != nil {
		return nil, err
	}
	d := &model.MovieDetails{Movie: m}
	for _, kind := range model.Kinds {
		rows, err := s.movies.ListChildren(ctx, kind, movieID)
		if err != nil {
			return nil, s.fail("list children", caller, movieID, err)
		}
		switch kind {
		case model.KindTag:
			d.Tags = rows
		case model.KindCast:
			d.Cast = rows
		case model.KindSeries:
			d.Series = rows
		}
	}
	return d, nil
}

// Add validates a submission and creates the movie with its tags, cast and
// series in one transaction.
func (s *MovieService) Add(ctx context.Context, caller Identity, form MovieForm) (*model.Movie, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	m, err := ValidateMovieFields(form)
	if err != nil {
		return nil, err
	}
	children, err := ValidateChildren(form)
	if err != nil {
		return nil, err
	}
	m.OwnerID = caller.UserID
	if err := s.movies.CreateWithChildren(ctx, &m, children); err != nil {
		return nil, s.fail("add", caller, 0, err)
	}
	s.log.Info("movie added", zap.Uint64("user_id", caller.UserID), zap.Uint64("movie_id", m.ID))
	s.publish(ctx, queue.ActivityEvent{Kind: queue.MovieAdded, UserID: caller.UserID, MovieID: m.ID, MovieTitle: m.Title})
	return &m, nil
}

// Edit replaces title, director, year, description and video link.
// Ownership is checked before the form is validated.
func (s *MovieService) Edit(ctx context.Context, caller Identity, movieID uint64, form MovieForm) (*model.Movie, error) {
	current, err := s.Authorize(ctx, caller, movieID)
	if err != nil {
		return nil, err
	}
	fields, err := ValidateMovieFields(form)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.Title = fields.Title
	updated.Director = fields.Director
	updated.Year = fields.Year
	updated.Description = fields.Description
	updated.VideoLink = fields.VideoLink
	if err := s.movies.Update(ctx, &updated); err != nil {
		return nil, s.fail("edit", caller, movieID, err)
	}
	s.publish(ctx, queue.ActivityEvent{Kind: queue.MovieEdited, UserID: caller.UserID, MovieID: movieID, MovieTitle: updated.Title})
	return &updated, nil
}

// Rate sets the rating to a whole number from 1 to 5. On any failure the
// stored rating is left as it was.
func (s *MovieService) Rate(ctx context.Context, caller Identity, movieID uint64, raw string) (*model.Movie, error) {
	m, err := s.Authorize(ctx, caller, movieID)
	if err != nil {
		return nil, err
	}
	rating, err := ParseRating(raw)
	if err != nil {
		s.log.Info("rejected rating",
			zap.Uint64("movie_id", movieID), zap.String("rating", raw))
		return nil, err
	}
	if err := s.movies.SetRating(ctx, movieID, caller.UserID, rating); err != nil {
		return nil, s.fail("rate", caller, movieID, err)
	}
	m.Rating = rating
	s.publish(ctx, queue.ActivityEvent{Kind: queue.MovieRated, UserID: caller.UserID, MovieID: movieID, MovieTitle: m.Title, Rating: rating})
	return m, nil
}

// MarkWatched sets the last-watched time to raw, or to now when raw is
// blank. A malformed time leaves the movie unchanged.
func (s *MovieService) MarkWatched(ctx context.Context, caller Identity, movieID uint64, raw string) (*model.Movie, error) {
	m, err := s.Authorize(ctx, caller, movieID)
	if err != nil {
		return nil, err
	}
	at, err := ParseWatchedAt(raw, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.movies.SetLastWatched(ctx, movieID, caller.UserID, at); err != nil {
		return nil, s.fail("watch", caller, movieID, err)
	}
	m.LastWatchedAt = &at
	s.publish(ctx, queue.ActivityEvent{Kind: queue.MovieWatched, UserID: caller.UserID, MovieID: movieID, MovieTitle: m.Title, WatchedAt: at.Format(time.RFC3339)})
	return m, nil
}

// AddChildren appends tags, cast members or series to a movie. Blank
// values are skipped; the batch is stored all or nothing.
func (s *MovieService) AddChildren(ctx context.Context, caller Identity, movieID uint64, kind model.ChildKind, raw string) (int, error) {
	if !kind.Valid() {
		return 0, ErrNotFound
	}
	m, err := s.Authorize(ctx, caller, movieID)
	if err != nil {
		return 0, err
	}
	verr := &ValidationError{}
	values := splitChecked(kind.Plural(), raw, verr)
	if err := verr.orNil(); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fieldErr(kind.Plural(), ErrMissingField, msgRequired)
	}
	if err := s.movies.AddChildren(ctx, kind, movieID, caller.UserID, values); err != nil {
		return 0, s.fail("add "+string(kind), caller, movieID, err)
	}
	s.publish(ctx, queue.ActivityEvent{Kind: queue.MovieChildrenAdded, UserID: caller.UserID, MovieID: movieID, MovieTitle: m.Title, ChildKind: string(kind), Values: values})
	return len(values), nil
}

// AddTags is AddChildren for tags.
func (s *MovieService) AddTags(ctx context.Context, caller Identity, movieID uint64, raw string) (int, error) {
	return s.AddChildren(ctx, caller, movieID, model.KindTag, raw)
}

// DeleteChild removes one tag, cast member or series from a movie the
// caller owns. A row that belongs to another movie is reported as missing.
func (s *MovieService) DeleteChild(ctx context.Context, caller Identity, movieID uint64, kind model.ChildKind, childID uint64) error {
	if !kind.Valid() {
		return ErrNotFound
	}
	m, err := s.Authorize(ctx, caller, movieID)
	if err != nil {
		return err
	}
	if err := s.movies.DeleteChild(ctx, kind, childID, movieID, caller.UserID); err != nil {
		return s.fail("delete "+string(kind), caller, movieID, err)
	}
	s.publish(ctx, queue.ActivityEvent{Kind: queue.MovieChildDeleted, UserID: caller.UserID, MovieID: movieID, MovieTitle: m.Title, ChildKind: string(kind)})
	return nil
}

// DeleteTag is DeleteChild for tags.
func (s *MovieService) DeleteTag(ctx context.Context, caller Identity, movieID, tagID uint64) error {
	return s.DeleteChild(ctx, caller, movieID, model.KindTag, tagID)
}

// Delete removes a movie and every child row in one transaction and
// returns what was deleted.
func (s *MovieService) Delete(ctx context.Context, caller Identity, movieID uint64) (*model.Movie, error) {
	m, err := s.Authorize(ctx, caller, movieID)
	if err != nil {
		return nil, err
	}
	if err := s.movies.DeleteByIDAndOwner(ctx, movieID, caller.UserID); err != nil {
		return nil, s.fail("delete", caller, movieID, err)
	}
	s.log.Info("movie deleted", zap.Uint64("user_id", caller.UserID), zap.Uint64("movie_id", movieID))
	s.publish(ctx, queue.ActivityEvent{Kind: queue.MovieDeleted, UserID: caller.UserID, MovieID: movieID, MovieTitle: m.Title})
	return m, nil
}

// fail maps repository sentinels to service errors and logs anything else
// with the operation and ids.
func (s *MovieService) fail(op string, caller Identity, movieID uint64, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	}
	s.log.Error("movie store failure",
		zap.String("op", op),
		zap.Uint64("user_id", caller.UserID),
		zap.Uint64("movie_id", movieID),
		zap.Error(err))
	return fmt.Errorf("%s movie %d: %w", op, movieID, err)
}

func (s *MovieService) publish(ctx context.Context, ev queue.ActivityEvent) {
	ev.OccurredAt = s.now().UTC().Format(time.RFC3339)
	if err := s.activity.Publish(ctx, ev); err != nil {
		s.log.Warn("activity publish failed", zap.String("kind", ev.Kind), zap.Uint64("movie_id", ev.MovieID), zap.Error(err))
	}
}
