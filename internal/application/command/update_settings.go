package command

import (
	"context"
	"fmt"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/progress"
	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS COMMANDS
// Flag toggles on the per-user settings document. The earned badge set is
// not writable here; only evaluation may overwrite it.
// ══════════════════════════════════════════════════════════════════════════════

// SettingsFlag names a toggleable settings flag.
type SettingsFlag string

const (
	// FlagAchievements shows or hides the badge panel.
	FlagAchievements SettingsFlag = "achievements"
	// FlagProgress enables the mentor-facing progress view.
	FlagProgress SettingsFlag = "progress"
	// FlagMentorCode shows or hides the share code UI.
	FlagMentorCode SettingsFlag = "mentorCode"
)

// UpdateSettingsFlagCommand flips one flag.
type UpdateSettingsFlagCommand struct {
	Session identity.SessionContext
	Flag    SettingsFlag
	Value   bool
}

// SettingsHandler handles settings commands.
type SettingsHandler struct {
	settingsRepo progress.SettingsRepository
	cache        progress.SnapshotCache
}

// NewSettingsHandler creates the handler.
func NewSettingsHandler(settingsRepo progress.SettingsRepository, cache progress.SnapshotCache) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo, cache: cache}
}

// HandleFlag flips one settings flag.
func (h *SettingsHandler) HandleFlag(ctx context.Context, cmd UpdateSettingsFlagCommand) (*progress.Settings, error) {
	if err := cmd.Session.RequireMutable(); err != nil {
		return nil, err
	}

	s, err := h.settingsRepo.GetSettings(ctx, cmd.Session.OwnerUID)
	if err != nil {
		return nil, fmt.Errorf("update_settings: load: %w", err)
	}

	switch cmd.Flag {
	case FlagAchievements:
		s.AchievementsEnabled = cmd.Value
	case FlagProgress:
		s.ProgressEnabled = cmd.Value
	case FlagMentorCode:
		s.MentorCodeEnabled = cmd.Value
	default:
		return nil, shared.NewDomainError("progress", "UpdateSettings", shared.ErrInvalidInput, "unknown settings flag")
	}

	if err := h.settingsRepo.SaveSettings(ctx, cmd.Session.OwnerUID, s); err != nil {
		return nil, fmt.Errorf("update_settings: save: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, cmd.Session.OwnerUID)
	return &s, nil
}

// HandleFirstLoginDone clears the first-login marker after the intro tour.
func (h *SettingsHandler) HandleFirstLoginDone(ctx context.Context, session identity.SessionContext) error {
	if err := session.RequireMutable(); err != nil {
		return err
	}

	s, err := h.settingsRepo.GetSettings(ctx, session.OwnerUID)
	if err != nil {
		return fmt.Errorf("first_login: load: %w", err)
	}
	if !s.FirstLogin {
		return nil
	}

	s.FirstLogin = false
	if err := h.settingsRepo.SaveSettings(ctx, session.OwnerUID, s); err != nil {
		return fmt.Errorf("first_login: save: %w", err)
	}

	invalidateSnapshot(ctx, h.cache, session.OwnerUID)
	return nil
}
