package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD SKILLS COMMAND
// Adds a batch of skills from one multi-line input, persisted atomically.
// ══════════════════════════════════════════════════════════════════════════════

// AddSkillsCommand carries the raw form input.
type AddSkillsCommand struct {
	Session identity.SessionContext

	// RawNames is the newline-separated skill list as typed.
	RawNames string
}

// AddSkillsResult reports what was stored.
type AddSkillsResult struct {
	Skills []progress.Skill
}

// AddSkillsHandler handles AddSkillsCommand.
type AddSkillsHandler struct {
	skillRepo progress.SkillRepository
	cache     progress.SnapshotCache
}

// NewAddSkillsHandler creates the handler.
func NewAddSkillsHandler(skillRepo progress.SkillRepository, cache progress.SnapshotCache) *AddSkillsHandler {
	return &AddSkillsHandler{skillRepo: skillRepo, cache: cache}
}

// Handle validates the batch and stores it atomically.
func (h *AddSkillsHandler) Handle(ctx context.Context, cmd AddSkillsCommand) (*AddSkillsResult, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	names, err := progress.ParseEntryList(cmd.RawNames)
	if err != nil {
		return nil, err
	}

	skills := make([]progress.Skill, 0, len(names))
	for _, name := range names {
		sk, err := progress.NewSkill(uuid.NewString(), name)
		if err != nil {
			return nil, err
		}
		skills = append(skills, sk)
	}

	if err := h.skillRepo.CreateBatch(ctx, cmd.Session.OwnerUID, skills); err != nil {
		return nil, fmt.Errorf("add_skills: store batch: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return &AddSkillsResult{Skills: skills}, nil
}
