package model

import "time"

// Movie represents a watchlist entry owned by a user. This struct
// corresponds to a row in the `movies` table. OwnerID is set once at
// creation and never changes afterwards.
//
// Fields:
//  ID            – primary key identifier.
//  OwnerID       – user ID of the movie owner.
//  Title         – non-empty title.
//  Director      – non-empty director name.
//  Year          – release year, 1878 or later.
//  Rating        – 0 when unrated, otherwise 1..5.
//  Description   – optional free text (empty when unset).
//  VideoLink     – optional absolute URL (empty when unset).
//  LastWatchedAt – when the owner last watched it (nil if never).
type Movie struct {
    ID            uint64     // movies.id
    OwnerID       uint64     // movies.owner_id
    Title         string     // movies.title
    Director      string     // movies.director
    Year          int        // movies.year
    Rating        int        // movies.rating
    Description   string     // movies.description
    VideoLink     string     // movies.video_link
    LastWatchedAt *time.Time // movies.last_watched_at (nullable)
}

// IsRated reports whether the owner has given the movie a rating.
func (m *Movie) IsRated() bool { return m.Rating > 0 }

// ChildKind names one of the one-to-many records hanging off a movie.
type ChildKind string

const (
    KindTag    ChildKind = "tag"
    KindCast   ChildKind = "cast"
    KindSeries ChildKind = "series"
)

// Kinds lists every child kind in display order.
var Kinds = []ChildKind{KindTag, KindCast, KindSeries}

// Valid reports whether k is one of the known kinds.
func (k ChildKind) Valid() bool {
    switch k {
    case KindTag, KindCast, KindSeries:
        return true
    }
    return false
}

// Plural is the name used in URLs and form fields.
func (k ChildKind) Plural() string {
    if k == KindTag {
        return "tags"
    }
    return string(k)
}

// KindFromPlural maps a URL segment such as "tags" back to its kind.
func KindFromPlural(s string) (ChildKind, bool) {
    for _, k := range Kinds {
        if k.Plural() == s {
            return k, true
        }
    }
    return "", false
}

// Child is a Tag, Cast or Series row. It has no identity beyond its
// parent movie and is deleted together with it.
//
// Fields:
//  ID      – primary key identifier within its table.
//  Kind    – which table the row lives in.
//  Value   – the tag text, actor name or series name.
//  MovieID – parent movie.
type Child struct {
    ID      uint64
    Kind    ChildKind
    Value   string
    MovieID uint64
}

// Children groups the child values submitted together with a movie.
type Children struct {
    Tags   []string
    Cast   []string
    Series []string
}

// Of returns the values for a single kind.
func (c Children) Of(k ChildKind) []string {
    switch k {
    case KindTag:
        return c.Tags
    case KindCast:
        return c.Cast
    case KindSeries:
        return c.Series
    }
    return nil
}

// MovieDetails is a movie together with all of its child rows.
type MovieDetails struct {
    Movie  *Movie
    Tags   []Child
    Cast   []Child
    Series []Child
}
