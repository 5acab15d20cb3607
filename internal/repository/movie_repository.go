// Package repository contains data access logic separated from HTTP handlers.
// This file defines the movie repository: CRUD for the movies table plus the
// owner checks and cascading deletes that must run inside one transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/movie-watchlist/internal/model"
)

// MovieRepo encapsulates all database queries related to movies and their
// tag, cast and series rows.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieColumns = "id, owner_id, title, director, year, rating, description, video_link, last_watched_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var (
		m       model.Movie
		watched sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.OwnerID, &m.Title, &m.Director, &m.Year, &m.Rating,
		&m.Description, &m.VideoLink, &watched); err != nil {
		return nil, err
	}
	if watched.Valid {
		t := watched.Time.UTC()
		m.LastWatchedAt = &t
	}
	return &m, nil
}

// CreateWithChildren inserts a movie and all of its tag, cast and series rows
// in a single transaction. Either everything is committed or nothing is. On
// success m.ID is populated.
func (r *MovieRepo) CreateWithChildren(ctx context.Context, m *model.Movie, children model.Children) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO movies (owner_id, title, director, year, rating, description, video_link)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.OwnerID, m.Title, m.Director, m.Year, m.Rating, m.Description, m.VideoLink)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, kind := range model.Kinds {
			if err := insertChildren(ctx, tx, kind, uint64(id), children.Of(kind)); err != nil {
				return err
			}
		}
		m.ID = uint64(id)
		return nil
	})
}

// GetByID fetches a movie by its ID regardless of owner. It returns
// ErrNotFound if no row is found. Ownership is decided by the caller so
// that "missing" and "not yours" can be told apart.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id)
	m, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListByOwner returns all movies for a specific owner ordered by id.
func (r *MovieRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes the editable fields (title, director, year, description and
// video link) of a movie owned by m.OwnerID.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, m.ID, m.OwnerID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE movies SET title = ?, director = ?, year = ?, description = ?, video_link = ?
			 WHERE id = ?`,
			m.Title, m.Director, m.Year, m.Description, m.VideoLink, m.ID)
		return err
	})
}

// SetRating stores a new rating for a movie owned by ownerID.
func (r *MovieRepo) SetRating(ctx context.Context, id, ownerID uint64, rating int) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, id, ownerID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE movies SET rating = ? WHERE id = ?", rating, id)
		return err
	})
}

// SetLastWatched stores when a movie owned by ownerID was last watched.
func (r *MovieRepo) SetLastWatched(ctx context.Context, id, ownerID uint64, at time.Time) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, id, ownerID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE movies SET last_watched_at = ? WHERE id = ?", at.UTC(), id)
		return err
	})
}

// DeleteByIDAndOwner removes a movie and all of its tag, cast and series rows
// provided it belongs to the specified owner. If the movie does not exist,
// ErrNotFound is returned. If it exists but is owned by a different user,
// ErrForbidden is returned. The deletion occurs within a transaction.
func (r *MovieRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, id, ownerID); err != nil {
			return err
		}
		for _, kind := range model.Kinds {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM "+childTable(kind)+" WHERE movie_id = ?", id); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
		return err
	})
}

// checkOwner verifies the movie exists and belongs to ownerID.
func checkOwner(ctx context.Context, tx *sql.Tx, id, ownerID uint64) error {
	var dbOwnerID uint64
	if err := tx.QueryRowContext(ctx, "SELECT owner_id FROM movies WHERE id = ?", id).Scan(&dbOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on any error.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
