package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VOCABULARY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// VocabularyRepo implements progress.VocabularyRepository.
type VocabularyRepo struct {
	conn *Connection
}

// NewVocabularyRepo creates the repository.
func NewVocabularyRepo(conn *Connection) *VocabularyRepo {
	return &VocabularyRepo{conn: conn}
}

const vocabularyColumns = "id, word, translation, category, status, date_added"

// ListByUser returns all items, oldest first.
func (r *VocabularyRepo) ListByUser(ctx context.Context, uid string) ([]progress.VocabularyItem, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM vocabulary WHERE uid = $1 ORDER BY date_added, id",
		vocabularyColumns,
	)
	rows, err := r.conn.Query(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: list: %w", err)
	}
	defer rows.Close()

	items := []progress.VocabularyItem{}
	for rows.Next() {
		item, err := scanVocabularyItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateBatch inserts all items in one transaction.
func (r *VocabularyRepo) CreateBatch(ctx context.Context, uid string, items []progress.VocabularyItem) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, item := range items {
			_, err := tx.Exec(ctx, `
				INSERT INTO vocabulary (id, uid, word, translation, category, status, date_added)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, item.ID, uid, item.Word, item.Translation, item.Category, string(item.Status), item.DateAdded)
			if err != nil {
				return fmt.Errorf("vocabulary: insert %q: %w", item.Word, err)
			}
		}
		return nil
	})
}

// UpdateStatus changes one item's status.
func (r *VocabularyRepo) UpdateStatus(ctx context.Context, uid, itemID string, status progress.Status) error {
	tag, err := r.conn.Exec(ctx,
		"UPDATE vocabulary SET status = $1 WHERE uid = $2 AND id = $3",
		string(status), uid, itemID,
	)
	if err != nil {
		return fmt.Errorf("vocabulary: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// Delete removes one item.
func (r *VocabularyRepo) Delete(ctx context.Context, uid, itemID string) error {
	tag, err := r.conn.Exec(ctx, "DELETE FROM vocabulary WHERE uid = $1 AND id = $2", uid, itemID)
	if err != nil {
		return fmt.Errorf("vocabulary: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// DeleteByCategory removes every item in the category.
func (r *VocabularyRepo) DeleteByCategory(ctx context.Context, uid, category string) (int64, error) {
	tag, err := r.conn.Exec(ctx,
		"DELETE FROM vocabulary WHERE uid = $1 AND category = $2",
		uid, category,
	)
	if err != nil {
		return 0, fmt.Errorf("vocabulary: delete by category: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAllByUser removes everything the user owns.
func (r *VocabularyRepo) DeleteAllByUser(ctx context.Context, uid string) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM vocabulary WHERE uid = $1", uid); err != nil {
		return fmt.Errorf("vocabulary: delete all: %w", err)
	}
	return nil
}

func scanVocabularyItem(row pgx.Row) (progress.VocabularyItem, error) {
	var item progress.VocabularyItem
	var status string
	if err := row.Scan(&item.ID, &item.Word, &item.Translation, &item.Category, &status, &item.DateAdded); err != nil {
		return progress.VocabularyItem{}, fmt.Errorf("vocabulary: scan: %w", err)
	}
	item.Status = progress.Status(status)
	return item, nil
}
