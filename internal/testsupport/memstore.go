package testsupport

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/movie-watchlist/internal/model"
	"github.com/iliyamo/movie-watchlist/internal/queue"
	"github.com/iliyamo/movie-watchlist/internal/repository"
)

// ErrInjected is returned by stores when a failure has been injected.
var ErrInjected = errors.New("injected failure")

// Users is an in-memory user store.
type Users struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.User
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{rows: map[uint64]model.User{}}
}

func (s *Users) Create(_ context.Context, email, passwordHash string, registeredAt time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.rows {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextID++
	s.rows[s.nextID] = model.User{ID: s.nextID, Email: email, PasswordHash: passwordHash, RegisteredAt: registeredAt}
	return s.nextID, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// Count returns the number of stored users.
func (s *Users) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Sessions is an in-memory session store keyed by token hash.
type Sessions struct {
	mu   sync.Mutex
	rows map[string]model.Session
	now  func() time.Time
}

// NewSessions returns an empty session store.
func NewSessions() *Sessions {
	return &Sessions{rows: map[string]model.Session{}, now: time.Now}
}

func (s *Sessions) Create(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[tokenHash]; ok {
		return errors.New("duplicate session hash")
	}
	s.rows[tokenHash] = model.Session{
		ID:        uint64(len(s.rows) + 1),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: s.now(),
	}
	return nil
}

func (s *Sessions) Validate(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[tokenHash]
	if !ok || row.RevokedAt != nil || s.now().After(row.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return row.UserID, nil
}

func (s *Sessions) Revoke(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[tokenHash]
	if !ok || row.RevokedAt != nil {
		return nil
	}
	now := s.now()
	row.RevokedAt = &now
	s.rows[tokenHash] = row
	return nil
}

// Active returns the number of sessions that are neither revoked nor expired.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.rows {
		if row.RevokedAt == nil && !s.now().After(row.ExpiresAt) {
			n++
		}
	}
	return n
}

// Movies is an in-memory movie store. Mutations work on a copy of the
// state and only swap it in when every step succeeded, so injected
// failures behave like a rolled back transaction.
type Movies struct {
	mu    sync.Mutex
	state movieState

	// FailChildInsertAt makes the nth child insert of a single call fail
	// (1-based). Zero disables it.
	FailChildInsertAt int
	// FailOps makes the named operations fail before doing anything.
	FailOps map[string]error
}

type movieState struct {
	nextMovie uint64
	nextChild uint64
	movies    map[uint64]model.Movie
	children  map[uint64]model.Child
}

func (st movieState) clone() movieState {
	out := movieState{
		nextMovie: st.nextMovie,
		nextChild: st.nextChild,
		movies:    make(map[uint64]model.Movie, len(st.movies)),
		children:  make(map[uint64]model.Child, len(st.children)),
	}
	for k, v := range st.movies {
		out.movies[k] = v
	}
	for k, v := range st.children {
		out.children[k] = v
	}
	return out
}

// NewMovies returns an empty movie store.
func NewMovies() *Movies {
	return &Movies{state: movieState{
		movies:   map[uint64]model.Movie{},
		children: map[uint64]model.Child{},
	}}
}

// tx applies fn to a copy of the state and commits it only on success.
func (s *Movies) tx(op string, fn func(st *movieState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailOps[op]; err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&work); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (st *movieState) checkOwner(id, ownerID uint64) error {
	m, ok := st.movies[id]
	if !ok {
		return repository.ErrNotFound
	}
	if m.OwnerID != ownerID {
		return repository.ErrForbidden
	}
	return nil
}

func (s *Movies) insertChildren(st *movieState, kind model.ChildKind, movieID uint64, values []string, n *int) error {
	for _, v := range values {
		*n++
		if s.FailChildInsertAt > 0 && *n == s.FailChildInsertAt {
			return ErrInjected
		}
		st.nextChild++
		st.children[st.nextChild] = model.Child{ID: st.nextChild, Kind: kind, Value: v, MovieID: movieID}
	}
	return nil
}

func (s *Movies) CreateWithChildren(_ context.Context, m *model.Movie, children model.Children) error {
	return s.tx("create", func(st *movieState) error {
		st.nextMovie++
		id := st.nextMovie
		row := *m
		row.ID = id
		st.movies[id] = row
		n := 0
		for _, kind := range model.Kinds {
			if err := s.insertChildren(st, kind, id, children.Of(kind), &n); err != nil {
				return err
			}
		}
		m.ID = id
		return nil
	})
}

func (s *Movies) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.state.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Movies) ListByOwner(_ context.Context, ownerID uint64) ([]*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Movie
	for _, m := range s.state.movies {
		if m.OwnerID == ownerID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Movies) Update(_ context.Context, m *model.Movie) error {
	return s.tx("update", func(st *movieState) error {
		if err := st.checkOwner(m.ID, m.OwnerID); err != nil {
			return err
		}
		row := st.movies[m.ID]
		row.Title, row.Director, row.Year = m.Title, m.Director, m.Year
		row.Description, row.VideoLink = m.Description, m.VideoLink
		st.movies[m.ID] = row
		return nil
	})
}

func (s *Movies) SetRating(_ context.Context, id, ownerID uint64, rating int) error {
	return s.tx("rate", func(st *movieState) error {
		if err := st.checkOwner(id, ownerID); err != nil {
			return err
		}
		row := st.movies[id]
		row.Rating = rating
		st.movies[id] = row
		return nil
	})
}

func (s *Movies) SetLastWatched(_ context.Context, id, ownerID uint64, at time.Time) error {
	return s.tx("watch", func(st *movieState) error {
		if err := st.checkOwner(id, ownerID); err != nil {
			return err
		}
		row := st.movies[id]
		at := at.UTC()
		row.LastWatchedAt = &at
		st.movies[id] = row
		return nil
	})
}

func (s *Movies) DeleteByIDAndOwner(_ context.Context, id, ownerID uint64) error {
	return s.tx("delete", func(st *movieState) error {
		if err := st.checkOwner(id, ownerID); err != nil {
			return err
		}
		for cid, c := range st.children {
			if c.MovieID == id {
				delete(st.children, cid)
			}
		}
		delete(st.movies, id)
		return nil
	})
}

func (s *Movies) ListChildren(_ context.Context, kind model.ChildKind, movieID uint64) ([]model.Child, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Child
	for _, c := range s.state.children {
		if c.Kind == kind && c.MovieID == movieID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Movies) AddChildren(_ context.Context, kind model.ChildKind, movieID, ownerID uint64, values []string) error {
	return s.tx("add children", func(st *movieState) error {
		if err := st.checkOwner(movieID, ownerID); err != nil {
			return err
		}
		n := 0
		return s.insertChildren(st, kind, movieID, values, &n)
	})
}

func (s *Movies) DeleteChild(_ context.Context, kind model.ChildKind, childID, movieID, ownerID uint64) error {
	return s.tx("delete child", func(st *movieState) error {
		if err := st.checkOwner(movieID, ownerID); err != nil {
			return err
		}
		c, ok := st.children[childID]
		if !ok || c.Kind != kind || c.MovieID != movieID {
			return repository.ErrNotFound
		}
		delete(st.children, childID)
		return nil
	})
}

// ChildCount returns how many child rows of any kind reference movieID.
func (s *Movies) ChildCount(movieID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.state.children {
		if c.MovieID == movieID {
			n++
		}
	}
	return n
}

// MovieCount returns the number of stored movies.
func (s *Movies) MovieCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.movies)
}

// Events records published activity events.
type Events struct {
	mu   sync.Mutex
	list []queue.ActivityEvent
	Err  error
}

func (e *Events) Publish(_ context.Context, ev queue.ActivityEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = append(e.list, ev)
	return e.Err
}

// Kinds returns the kinds of every recorded event in order.
func (e *Events) Kinds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.list))
	for i, ev := range e.list {
		out[i] = ev.Kind
	}
	return out
}

// Last returns the most recent event.
func (e *Events) Last() (queue.ActivityEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.list) == 0 {
		return queue.ActivityEvent{}, false
	}
	return e.list[len(e.list)-1], true
}
