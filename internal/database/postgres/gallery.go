package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/pgvector/pgvector-go"
)

// GalleryRepository stores the face gallery in the gallery_entries table.
type GalleryRepository struct {
	pool *Pool
}

var _ gallery.Store = (*GalleryRepository)(nil)

// NewGalleryRepository creates a new PostgreSQL gallery repository
func NewGalleryRepository(pool *Pool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

// Load returns all entries in enrollment order.
func (r *GalleryRepository) Load(ctx context.Context) ([]facematch.Entry, error) {
	rows, err := r.pool.Query(ctx, "SELECT name, feature FROM gallery_entries ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}
	defer rows.Close()

	var entries []facematch.Entry
	for rows.Next() {
		var name string
		var vec pgvector.Vector
		if err := rows.Scan(&name, &vec); err != nil {
			return nil, fmt.Errorf("scan gallery entry: %w", err)
		}
		entries = append(entries, facematch.Entry{Name: name, Feature: vec.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery entries: %w", err)
	}
	return entries, nil
}

// Save replaces every stored entry in a single transaction.
func (r *GalleryRepository) Save(ctx context.Context, entries []facematch.Entry) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM gallery_entries"); err != nil {
		return fmt.Errorf("clear gallery: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO gallery_entries (position, name, feature) VALUES ($1, $2, $3)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, i, e.Name, pgvector.NewVector(e.Feature)); err != nil {
			return fmt.Errorf("insert gallery entry %d (%s): %w", i, e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit gallery: %w", err)
	}
	return nil
}

// CountByName returns the number of stored entries per name.
func (r *GalleryRepository) CountByName(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, "SELECT name, COUNT(*) FROM gallery_entries GROUP BY name")
	if err != nil {
		return nil, fmt.Errorf("count gallery entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan gallery count: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery counts: %w", err)
	}
	return counts, nil
}
