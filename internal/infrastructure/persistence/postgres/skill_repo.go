package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SKILL REPOSITORY
// Subtasks are embedded as a jsonb array; the whole array is rewritten on
// every subtask mutation, matching the domain contract.
// ══════════════════════════════════════════════════════════════════════════════

// SkillRepo implements progress.SkillRepository.
type SkillRepo struct {
	conn *Connection
}

// NewSkillRepo creates the repository.
func NewSkillRepo(conn *Connection) *SkillRepo {
	return &SkillRepo{conn: conn}
}

// ListByUser returns all skills, oldest first.
func (r *SkillRepo) ListByUser(ctx context.Context, uid string) ([]progress.Skill, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, name, status, subtasks, date_added
		FROM skills WHERE uid = $1 ORDER BY date_added, id
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("skills: list: %w", err)
	}
	defer rows.Close()

	skills := []progress.Skill{}
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

// GetByID returns one skill.
func (r *SkillRepo) GetByID(ctx context.Context, uid, skillID string) (*progress.Skill, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, name, status, subtasks, date_added
		FROM skills WHERE uid = $1 AND id = $2
	`, uid, skillID)

	sk, err := scanSkill(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrItemNotFound
		}
		return nil, err
	}
	return &sk, nil
}

// CreateBatch inserts all skills in one transaction.
func (r *SkillRepo) CreateBatch(ctx context.Context, uid string, skills []progress.Skill) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, sk := range skills {
			subtasks, err := json.Marshal(sk.Subtasks)
			if err != nil {
				return fmt.Errorf("skills: marshal subtasks: %w", err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO skills (id, uid, name, status, subtasks, date_added)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, sk.ID, uid, sk.Name, string(sk.Status), subtasks, sk.DateAdded)
			if err != nil {
				return fmt.Errorf("skills: insert %q: %w", sk.Name, err)
			}
		}
		return nil
	})
}

// UpdateStatus changes one skill's status.
func (r *SkillRepo) UpdateStatus(ctx context.Context, uid, skillID string, status progress.Status) error {
	tag, err := r.conn.Exec(ctx,
		"UPDATE skills SET status = $1 WHERE uid = $2 AND id = $3",
		string(status), uid, skillID,
	)
	if err != nil {
		return fmt.Errorf("skills: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// ReplaceSubtasks overwrites the skill's subtask list.
func (r *SkillRepo) ReplaceSubtasks(ctx context.Context, uid, skillID string, subtasks []progress.Subtask) error {
	if subtasks == nil {
		subtasks = []progress.Subtask{}
	}
	payload, err := json.Marshal(subtasks)
	if err != nil {
		return fmt.Errorf("skills: marshal subtasks: %w", err)
	}

	tag, err := r.conn.Exec(ctx,
		"UPDATE skills SET subtasks = $1 WHERE uid = $2 AND id = $3",
		payload, uid, skillID,
	)
	if err != nil {
		return fmt.Errorf("skills: replace subtasks: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// Delete removes one skill with its subtasks.
func (r *SkillRepo) Delete(ctx context.Context, uid, skillID string) error {
	tag, err := r.conn.Exec(ctx, "DELETE FROM skills WHERE uid = $1 AND id = $2", uid, skillID)
	if err != nil {
		return fmt.Errorf("skills: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrItemNotFound
	}
	return nil
}

// DeleteAllByUser removes everything the user owns.
func (r *SkillRepo) DeleteAllByUser(ctx context.Context, uid string) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM skills WHERE uid = $1", uid); err != nil {
		return fmt.Errorf("skills: delete all: %w", err)
	}
	return nil
}

func scanSkill(row pgx.Row) (progress.Skill, error) {
	var sk progress.Skill
	var status string
	var subtasks []byte
	if err := row.Scan(&sk.ID, &sk.Name, &status, &subtasks, &sk.DateAdded); err != nil {
		return progress.Skill{}, err
	}
	sk.Status = progress.Status(status)
	if err := json.Unmarshal(subtasks, &sk.Subtasks); err != nil {
		return progress.Skill{}, fmt.Errorf("skills: decode subtasks: %w", err)
	}
	if sk.Subtasks == nil {
		sk.Subtasks = []progress.Subtask{}
	}
	return sk, nil
}
