package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBTASK COMMANDS
// Subtasks live inside their parent skill. Every mutation loads the skill,
// rewrites the whole subtask list, and stores it back in one write.
// ══════════════════════════════════════════════════════════════════════════════

// AddSubtaskCommand appends a subtask to a skill.
type AddSubtaskCommand struct {
	Session identity.SessionContext
	SkillID string
	Text    string
}

// UpdateSubtaskStatusCommand changes one subtask's status.
type UpdateSubtaskStatusCommand struct {
	Session   identity.SessionContext
	SkillID   string
	SubtaskID string
	RawStatus string
}

// DeleteSubtaskCommand removes one subtask.
type DeleteSubtaskCommand struct {
	Session   identity.SessionContext
	SkillID   string
	SubtaskID string
}

// SubtaskHandler handles all subtask commands.
type SubtaskHandler struct {
	skillRepo progress.SkillRepository
	cache     progress.SnapshotCache
}

// NewSubtaskHandler creates the handler.
func NewSubtaskHandler(skillRepo progress.SkillRepository, cache progress.SnapshotCache) *SubtaskHandler {
	return &SubtaskHandler{skillRepo: skillRepo, cache: cache}
}

// HandleAdd appends a subtask and returns the stored subtask.
func (h *SubtaskHandler) HandleAdd(ctx context.Context, cmd AddSubtaskCommand) (*progress.Subtask, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	skill, err := h.skillRepo.GetByID(ctx, cmd.Session.OwnerUID, cmd.SkillID)
	if err != nil {
		return nil, fmt.Errorf("add_subtask: load skill: %w", err)
	}

	st, err := progress.NewSubtask(uuid.NewString(), cmd.Text)
	if err != nil {
		return nil, err
	}

	if err := h.skillRepo.ReplaceSubtasks(ctx, cmd.Session.OwnerUID, cmd.SkillID, skill.WithSubtaskAdded(st)); err != nil {
		return nil, fmt.Errorf("add_subtask: save: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return &st, nil
}

// HandleUpdateStatus changes one subtask's status.
func (h *SubtaskHandler) HandleUpdateStatus(ctx context.Context, cmd UpdateSubtaskStatusCommand) error {
	if err := cmd.Session.RequireMutable(); err != nil {
		return err
	}

	status, err := progress.ParseStatus(cmd.RawStatus)
	if err != nil {
		return err
	}

	skill, err := h.skillRepo.GetByID(ctx, cmd.Session.OwnerUID, cmd.SkillID)
	if err != nil {
		return fmt.Errorf("update_subtask: load skill: %w", err)
	}

	updated, err := skill.WithSubtaskStatus(cmd.SubtaskID, status)
	if err != nil {
		return err
	}

	if err := h.skillRepo.ReplaceSubtasks(ctx, cmd.Session.OwnerUID, cmd.SkillID, updated); err != nil {
		return fmt.Errorf("update_subtask: save: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return nil
}

// HandleDelete removes one subtask.
func (h *SubtaskHandler) HandleDelete(ctx context.Context, cmd DeleteSubtaskCommand) error {
	if err := cmd.Session.RequireMutable(); err != nil {
		return err
	}

	skill, err := h.skillRepo.GetByID(ctx, cmd.Session.OwnerUID, cmd.SkillID)
	if err != nil {
		return fmt.Errorf("delete_subtask: load skill: %w", err)
	}

	updated, err := skill.WithSubtaskRemoved(cmd.SubtaskID)
	if err != nil {
		return err
	}

	if err := h.skillRepo.ReplaceSubtasks(ctx, cmd.Session.OwnerUID, cmd.SkillID, updated); err != nil {
		return fmt.Errorf("delete_subtask: save: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return nil
}
