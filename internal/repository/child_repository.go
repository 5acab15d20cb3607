package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-watchlist/internal/model"
)

// childTable maps a kind to its table. Only known kinds reach the SQL
// string, so callers cannot inject table names.
func childTable(kind model.ChildKind) string {
	switch kind {
	case model.KindCast:
		return "movie_cast"
	case model.KindSeries:
		return "movie_series"
	default:
		return "movie_tags"
	}
}

func insertChildren(ctx context.Context, tx *sql.Tx, kind model.ChildKind, movieID uint64, values []string) error {
	if len(values) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+childTable(kind)+" (movie_id, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, movieID, v); err != nil {
			return err
		}
	}
	return nil
}

// ListChildren returns the rows of one kind attached to a movie ordered by id.
func (r *MovieRepo) ListChildren(ctx context.Context, kind model.ChildKind, movieID uint64) ([]model.Child, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, movie_id, value FROM "+childTable(kind)+" WHERE movie_id = ? ORDER BY id", movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Child
	for rows.Next() {
		c := model.Child{Kind: kind}
		if err := rows.Scan(&c.ID, &c.MovieID, &c.Value); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddChildren appends rows of one kind to a movie owned by ownerID. The
// whole batch is written in one transaction.
func (r *MovieRepo) AddChildren(ctx context.Context, kind model.ChildKind, movieID, ownerID uint64, values []string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, movieID, ownerID); err != nil {
			return err
		}
		return insertChildren(ctx, tx, kind, movieID, values)
	})
}

// DeleteChild removes one child row. The parent movie must belong to
// ownerID and the row must belong to the movie, otherwise ErrForbidden or
// ErrNotFound is returned and nothing changes.
func (r *MovieRepo) DeleteChild(ctx context.Context, kind model.ChildKind, childID, movieID, ownerID uint64) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, movieID, ownerID); err != nil {
			return err
		}
		var parent uint64
		err := tx.QueryRowContext(ctx,
			"SELECT movie_id FROM "+childTable(kind)+" WHERE id = ?", childID).Scan(&parent)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if parent != movieID {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM "+childTable(kind)+" WHERE id = ?", childID)
		return err
	})
}
