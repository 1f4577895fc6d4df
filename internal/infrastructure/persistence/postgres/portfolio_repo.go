package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PORTFOLIO REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// PortfolioRepo implements progress.PortfolioRepository.
type PortfolioRepo struct {
	conn *Connection
}

// NewPortfolioRepo creates the repository.
func NewPortfolioRepo(conn *Connection) *PortfolioRepo {
	return &PortfolioRepo{conn: conn}
}

// ListByUser returns all entries, oldest first.
func (r *PortfolioRepo) ListByUser(ctx context.Context, uid string) ([]progress.PortfolioEntry, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, title, link, type, video_id, is_top, date_added
		FROM portfolio WHERE uid = $1 ORDER BY date_added, id
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("portfolio: list: %w", err)
	}
	defer rows.Close()

	entries := []progress.PortfolioEntry{}
	for rows.Next() {
		e, err := scanPortfolioEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetByID returns one entry.
func (r *PortfolioRepo) GetByID(ctx context.Context, uid, entryID string) (*progress.PortfolioEntry, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, title, link, type, video_id, is_top, date_added
		FROM portfolio WHERE uid = $1 AND id = $2
	`, uid, entryID)

	e, err := scanPortfolioEntry(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrItemNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts one entry.
func (r *PortfolioRepo) Create(ctx context.Context, uid string, entry progress.PortfolioEntry) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO portfolio (id, uid, title, link, type, video_id, is_top, date_added)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, uid, entry.Title, entry.Link, string(entry.Type), entry.VideoID, entry.IsTop, entry.DateAdded)
	if err != nil {
		return fmt.Errorf("portfolio: insert: %w", err)
	}
	return nil
}

// CountTop returns how many entries are featured.
func (r *PortfolioRepo) CountTop(ctx context.Context, uid string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM portfolio WHERE uid = $1 AND is_top",
		uid,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("portfolio: count featured: %w", err)
	}
	return count, nil
}

// SetTop flips the featured flag.
func (r *PortfolioRepo) SetTop(ctx context.Context, uid, entryID string, top bool) error {
	tag, err := r.conn.Exec(ctx,
		"UPDATE portfolio SET is_top = $1 WHERE uid = $2 AND id = $3",
		top, uid, entryID,
	)
	if err != nil {
		return fmt.Errorf("portfolio: set featured: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// Delete removes one entry.
func (r *PortfolioRepo) Delete(ctx context.Context, uid, entryID string) error {
	tag, err := r.conn.Exec(ctx, "DELETE FROM portfolio WHERE uid = $1 AND id = $2", uid, entryID)
	if err != nil {
		return fmt.Errorf("portfolio: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// DeleteAllByUser removes everything the user owns.
func (r *PortfolioRepo) DeleteAllByUser(ctx context.Context, uid string) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM portfolio WHERE uid = $1", uid); err != nil {
		return fmt.Errorf("portfolio: delete all: %w", err)
	}
	return nil
}

func scanPortfolioEntry(row pgx.Row) (progress.PortfolioEntry, error) {
	var e progress.PortfolioEntry
	var ptype string
	if err := row.Scan(&e.ID, &e.Title, &e.Link, &ptype, &e.VideoID, &e.IsTop, &e.DateAdded); err != nil {
		return progress.PortfolioEntry{}, err
	}
	e.Type = progress.PortfolioType(ptype)
	return e, nil
}
