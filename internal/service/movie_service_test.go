package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-watchlist/internal/model"
	"github.com/iliyamo/movie-watchlist/internal/queue"
	"github.com/iliyamo/movie-watchlist/internal/testsupport"
)

var (
	alice = Identity{UserID: 1, Email: "a@x.com"}
	bob   = Identity{UserID: 2, Email: "b@x.com"}
)

func newMovies(t *testing.T) (*MovieService, *testsupport.Movies, *testsupport.Events) {
	t.Helper()
	store := testsupport.NewMovies()
	events := &testsupport.Events{}
	svc := NewMovieService(store, events, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store, events
}

func addHeat(t *testing.T, svc *MovieService, caller Identity) *model.Movie {
	t.Helper()
	m, err := svc.Add(context.Background(), caller, MovieForm{
		Title: "Heat", Director: "Mann", Year: "1995",
		Tags: "crime\nheist", Cast: "Pacino, De Niro", Series: "",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return m
}

func TestAddAndGet(t *testing.T) {
	svc, _, events := newMovies(t)
	ctx := context.Background()
	m := addHeat(t, svc, alice)

	if m.OwnerID != alice.UserID || m.Rating != 0 {
		t.Fatalf("movie = %+v", m)
	}
	d, err := svc.Get(ctx, alice, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(d.Tags) != 2 || len(d.Cast) != 2 || len(d.Series) != 0 {
		t.Fatalf("children = %d/%d/%d, want 2/2/0", len(d.Tags), len(d.Cast), len(d.Series))
	}
	if d.Cast[1].Value != "De Niro" {
		t.Fatalf("cast[1] = %q, want De Niro", d.Cast[1].Value)
	}

	list, err := svc.List(ctx, alice)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if list, _ := svc.List(ctx, bob); len(list) != 0 {
		t.Fatalf("bob sees %d movies, want 0", len(list))
	}
	if got := events.Kinds(); !reflect.DeepEqual(got, []string{queue.MovieAdded}) {
		t.Fatalf("events = %v", got)
	}
}

func TestAddInvalidWritesNothing(t *testing.T) {
	svc, store, events := newMovies(t)
	_, err := svc.Add(context.Background(), alice, MovieForm{Title: "Heat", Director: "Mann", Year: "1800", Tags: "crime"})
	if !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("error = %v, want ErrInvalidYear", err)
	}
	if store.MovieCount() != 0 {
		t.Fatalf("movies = %d, want 0", store.MovieCount())
	}
	if len(events.Kinds()) != 0 {
		t.Fatalf("events = %v, want none", events.Kinds())
	}
}

func TestAddRollsBackOnChildFailure(t *testing.T) {
	svc, store, _ := newMovies(t)
	store.FailChildInsertAt = 3

	_, err := svc.Add(context.Background(), alice, MovieForm{Title: "Heat", Director: "Mann", Year: "1995", Tags: "a,b,c,d"})
	if !errors.Is(err, testsupport.ErrInjected) {
		t.Fatalf("error = %v, want injected failure", err)
	}
	if store.MovieCount() != 0 || store.ChildCount(1) != 0 {
		t.Fatalf("partial write survived: movies=%d children=%d", store.MovieCount(), store.ChildCount(1))
	}
}

func TestOwnershipEnforced(t *testing.T) {
	svc, store, _ := newMovies(t)
	ctx := context.Background()
	m := addHeat(t, svc, alice)
	before, _ := store.GetByID(ctx, m.ID)

	ops := map[string]func(Identity, uint64) error{
		"get": func(c Identity, id uint64) error { _, err := svc.Get(ctx, c, id); return err },
		"edit": func(c Identity, id uint64) error {
			_, err := svc.Edit(ctx, c, id, MovieForm{Title: "X", Director: "Y", Year: "2000"})
			return err
		},
		"rate":   func(c Identity, id uint64) error { _, err := svc.Rate(ctx, c, id, "4"); return err },
		"watch":  func(c Identity, id uint64) error { _, err := svc.MarkWatched(ctx, c, id, ""); return err },
		"tags":   func(c Identity, id uint64) error { _, err := svc.AddTags(ctx, c, id, "x"); return err },
		"untag":  func(c Identity, id uint64) error { return svc.DeleteTag(ctx, c, id, 1) },
		"delete": func(c Identity, id uint64) error { _, err := svc.Delete(ctx, c, id); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(bob, m.ID); !errors.Is(err, ErrForbidden) {
				t.Fatalf("bob: error = %v, want ErrForbidden", err)
			}
			if err := op(alice, 999); !errors.Is(err, ErrNotFound) {
				t.Fatalf("missing: error = %v, want ErrNotFound", err)
			}
			if err := op(Identity{}, m.ID); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("anonymous: error = %v, want ErrUnauthenticated", err)
			}
		})
	}

	after, _ := store.GetByID(ctx, m.ID)
	if !reflect.DeepEqual(before, after) || store.ChildCount(m.ID) != 4 {
		t.Fatalf("movie changed by rejected calls: %+v -> %+v", before, after)
	}
}

func TestEditChecksOwnerBeforeValidating(t *testing.T) {
	svc, _, _ := newMovies(t)
	m := addHeat(t, svc, alice)

	_, err := svc.Edit(context.Background(), bob, m.ID, MovieForm{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestEditKeepsOwnerAndRating(t *testing.T) {
	svc, _, _ := newMovies(t)
	ctx := context.Background()
	m := addHeat(t, svc, alice)
	if _, err := svc.Rate(ctx, alice, m.ID, "4"); err != nil {
		t.Fatalf("Rate: %v", err)
	}

	got, err := svc.Edit(ctx, alice, m.ID, MovieForm{Title: "Heat (1995)", Director: "Michael Mann", Year: "1995", Description: "LA crime saga"})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.Title != "Heat (1995)" || got.OwnerID != alice.UserID || got.Rating != 4 || got.Description != "LA crime saga" {
		t.Fatalf("edited movie = %+v", got)
	}
}

func TestRate(t *testing.T) {
	svc, store, events := newMovies(t)
	ctx := context.Background()
	m := addHeat(t, svc, alice)

	if _, err := svc.Rate(ctx, alice, m.ID, "5"); err != nil {
		t.Fatalf("Rate(5): %v", err)
	}
	for _, raw := range []string{"9", "0", "abc"} {
		if _, err := svc.Rate(ctx, alice, m.ID, raw); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("Rate(%s) error = %v, want ErrInvalidRating", raw, err)
		}
	}
	got, _ := store.GetByID(ctx, m.ID)
	if got.Rating != 5 {
		t.Fatalf("rating = %d, want 5", got.Rating)
	}
	ev, _ := events.Last()
	if ev.Kind != queue.MovieRated || ev.Rating != 5 {
		t.Fatalf("last event = %+v", ev)
	}
}

func TestMarkWatched(t *testing.T) {
	svc, store, _ := newMovies(t)
	ctx := context.Background()
	m := addHeat(t, svc, alice)

	got, err := svc.MarkWatched(ctx, alice, m.ID, "")
	if err != nil {
		t.Fatalf("MarkWatched: %v", err)
	}
	if !got.LastWatchedAt.Equal(svc.now()) {
		t.Fatalf("watched = %v, want now", got.LastWatchedAt)
	}

	if _, err := svc.MarkWatched(ctx, alice, m.ID, "last tuesday"); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("error = %v, want ErrInvalidTimestamp", err)
	}
	stored, _ := store.GetByID(ctx, m.ID)
	if !stored.LastWatchedAt.Equal(svc.now()) {
		t.Fatalf("watched changed to %v by rejected call", stored.LastWatchedAt)
	}

	if _, err := svc.MarkWatched(ctx, alice, m.ID, "2020-02-02"); err != nil {
		t.Fatalf("MarkWatched(date): %v", err)
	}
	stored, _ = store.GetByID(ctx, m.ID)
	if want := time.Date(2020, 2, 2, 0, 0, 0, 0, time.UTC); !stored.LastWatchedAt.Equal(want) {
		t.Fatalf("watched = %v, want %v", stored.LastWatchedAt, want)
	}
}

func TestAddChildren(t *testing.T) {
	svc, store, _ := newMovies(t)
	ctx := context.Background()
	m := addHeat(t, svc, alice)

	n, err := svc.AddChildren(ctx, alice, m.ID, model.KindSeries, "Crime Epics\n\n")
	if err != nil || n != 1 {
		t.Fatalf("AddChildren = %d, %v", n, err)
	}
	if _, err := svc.AddChildren(ctx, alice, m.ID, model.KindTag, " \n "); !errors.Is(err, ErrMissingField) {
		t.Fatalf("blank batch error = %v, want ErrMissingField", err)
	}
	if _, err := svc.AddChildren(ctx, alice, m.ID, model.ChildKind("genre"), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown kind error = %v, want ErrNotFound", err)
	}

	store.FailChildInsertAt = 2
	if _, err := svc.AddTags(ctx, alice, m.ID, "one,two,three"); !errors.Is(err, testsupport.ErrInjected) {
		t.Fatalf("error = %v, want injected failure", err)
	}
	if got := store.ChildCount(m.ID); got != 5 {
		t.Fatalf("children = %d, want 5 (batch rolled back)", got)
	}
}

func TestDeleteChild(t *testing.T) {
	svc, _, _ := newMovies(t)
	ctx := context.Background()
	heat := addHeat(t, svc, alice)
	other, err := svc.Add(ctx, alice, MovieForm{Title: "Alien", Director: "Scott", Year: "1979", Tags: "scifi"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	d, _ := svc.Get(ctx, alice, other.ID)
	alienTag := d.Tags[0].ID

	// A tag of another movie is not reachable through heat.
	if err := svc.DeleteTag(ctx, alice, heat.ID, alienTag); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteTag(ctx, alice, other.ID, alienTag); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	d, _ = svc.Get(ctx, alice, other.ID)
	if len(d.Tags) != 0 {
		t.Fatalf("tags = %v, want none", d.Tags)
	}
}

func TestDeleteCascades(t *testing.T) {
	svc, store, events := newMovies(t)
	ctx := context.Background()
	m := addHeat(t, svc, alice)

	deleted, err := svc.Delete(ctx, alice, m.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.Title != "Heat" {
		t.Fatalf("deleted = %+v", deleted)
	}
	if store.ChildCount(m.ID) != 0 {
		t.Fatalf("orphaned children = %d", store.ChildCount(m.ID))
	}
	if _, err := svc.Get(ctx, alice, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete error = %v, want ErrNotFound", err)
	}
	if ev, _ := events.Last(); ev.Kind != queue.MovieDeleted {
		t.Fatalf("last event = %+v", ev)
	}
}

func TestStoreFailureIsWrapped(t *testing.T) {
	svc, store, _ := newMovies(t)
	m := addHeat(t, svc, alice)
	boom := errors.New("disk full")
	store.FailOps = map[string]error{"delete": boom}

	_, err := svc.Delete(context.Background(), alice, m.ID)
	if !errors.Is(err, boom) || errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want wrapped store failure", err)
	}
	if store.ChildCount(m.ID) != 4 {
		t.Fatalf("children = %d, want 4", store.ChildCount(m.ID))
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	svc, store, events := newMovies(t)
	events.Err = errors.New("broker down")

	m := addHeat(t, svc, alice)
	if m.ID == 0 || store.MovieCount() != 1 {
		t.Fatalf("movie not stored: %+v", m)
	}
}
