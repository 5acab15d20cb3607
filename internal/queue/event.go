// Package queue defines message payloads exchanged over the message broker.
package queue

// ActivityQueueName is the durable queue carrying watchlist activity.
const ActivityQueueName = "watchlist.activity"

// Activity kinds.
const (
	MovieAdded         = "movie.added"
	MovieEdited        = "movie.edited"
	MovieRated         = "movie.rated"
	MovieWatched       = "movie.watched"
	MovieDeleted       = "movie.deleted"
	MovieChildrenAdded = "movie.children_added"
	MovieChildDeleted  = "movie.child_deleted"
)

// ActivityEvent is published after a change to a movie has been committed.
// It carries enough for a consumer to log or notify without querying the
// primary database.
type ActivityEvent struct {
	Kind       string   `json:"kind"`
	UserID     uint64   `json:"user_id"`
	MovieID    uint64   `json:"movie_id"`
	MovieTitle string   `json:"movie_title"`
	Rating     int      `json:"rating,omitempty"`
	WatchedAt  string   `json:"watched_at,omitempty"`
	ChildKind  string   `json:"child_kind,omitempty"`
	Values     []string `json:"values,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}
