package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/language-study/study-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS REPOSITORY
// One row per user holding three jsonb documents: the category list, the
// settings flags, and the earned badge set. A missing row reads as the
// defaults; the first write materializes it.
// ══════════════════════════════════════════════════════════════════════════════

// SettingsRepo implements progress.SettingsRepository and
// badge.EarnedBadgeStore.
type SettingsRepo struct {
	conn *Connection
}

// NewSettingsRepo creates the repository.
func NewSettingsRepo(conn *Connection) *SettingsRepo {
	return &SettingsRepo{conn: conn}
}

// settingsDoc mirrors the settings jsonb column. EarnedBadges lives in its
// own column so evaluation can overwrite it without touching the flags.
type settingsDoc struct {
	AchievementsEnabled bool `json:"achievementsEnabled"`
	ProgressEnabled     bool `json:"progressEnabled"`
	MentorCodeEnabled   bool `json:"mentorCodeEnabled"`
	FirstLogin          bool `json:"firstLogin"`
}

// GetSettings returns the user's settings, defaulting when absent.
func (r *SettingsRepo) GetSettings(ctx context.Context, uid string) (progress.Settings, error) {
	var settingsRaw, badgesRaw []byte
	err := r.conn.QueryRow(ctx,
		"SELECT settings, earned_badges FROM user_settings WHERE uid = $1",
		uid,
	).Scan(&settingsRaw, &badgesRaw)
	if err != nil {
		if IsNoRows(err) {
			return progress.DefaultSettings(), nil
		}
		return progress.Settings{}, fmt.Errorf("settings: get: %w", err)
	}

	var doc settingsDoc
	if len(settingsRaw) > 0 && string(settingsRaw) != "{}" {
		if err := json.Unmarshal(settingsRaw, &doc); err != nil {
			return progress.Settings{}, fmt.Errorf("settings: decode: %w", err)
		}
	} else {
		def := progress.DefaultSettings()
		doc = settingsDoc{
			AchievementsEnabled: def.AchievementsEnabled,
			ProgressEnabled:     def.ProgressEnabled,
			MentorCodeEnabled:   def.MentorCodeEnabled,
			FirstLogin:          def.FirstLogin,
		}
	}

	earned := []string{}
	if len(badgesRaw) > 0 {
		if err := json.Unmarshal(badgesRaw, &earned); err != nil {
			return progress.Settings{}, fmt.Errorf("settings: decode badges: %w", err)
		}
	}

	return progress.Settings{
		EarnedBadges:        earned,
		AchievementsEnabled: doc.AchievementsEnabled,
		ProgressEnabled:     doc.ProgressEnabled,
		MentorCodeEnabled:   doc.MentorCodeEnabled,
		FirstLogin:          doc.FirstLogin,
	}, nil
}

// SaveSettings stores the flags. The earned badge set is written only by
// SaveEarnedBadges, so a flag toggle can never clobber badge history.
func (r *SettingsRepo) SaveSettings(ctx context.Context, uid string, s progress.Settings) error {
	payload, err := json.Marshal(settingsDoc{
		AchievementsEnabled: s.AchievementsEnabled,
		ProgressEnabled:     s.ProgressEnabled,
		MentorCodeEnabled:   s.MentorCodeEnabled,
		FirstLogin:          s.FirstLogin,
	})
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO user_settings (uid, settings, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (uid) DO UPDATE SET settings = $2, updated_at = NOW()
	`, uid, payload)
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}

// GetCategories returns the user's category list, defaulting when absent.
func (r *SettingsRepo) GetCategories(ctx context.Context, uid string) (progress.CategoryList, error) {
	var raw []byte
	err := r.conn.QueryRow(ctx,
		"SELECT categories FROM user_settings WHERE uid = $1",
		uid,
	).Scan(&raw)
	if err != nil {
		if IsNoRows(err) {
			return progress.DefaultCategories(), nil
		}
		return nil, fmt.Errorf("settings: get categories: %w", err)
	}

	var list progress.CategoryList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("settings: decode categories: %w", err)
	}
	return list.Normalized(), nil
}

// SaveCategories stores the category list.
func (r *SettingsRepo) SaveCategories(ctx context.Context, uid string, list progress.CategoryList) error {
	payload, err := json.Marshal(list.Normalized())
	if err != nil {
		return fmt.Errorf("settings: encode categories: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO user_settings (uid, categories, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (uid) DO UPDATE SET categories = $2, updated_at = NOW()
	`, uid, payload)
	if err != nil {
		return fmt.Errorf("settings: save categories: %w", err)
	}
	return nil
}

// SaveEarnedBadges overwrites the earned set wholesale.
func (r *SettingsRepo) SaveEarnedBadges(ctx context.Context, uid string, badgeIDs []string) error {
	if badgeIDs == nil {
		badgeIDs = []string{}
	}
	payload, err := json.Marshal(badgeIDs)
	if err != nil {
		return fmt.Errorf("settings: encode badges: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO user_settings (uid, earned_badges, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (uid) DO UPDATE SET earned_badges = $2, updated_at = NOW()
	`, uid, payload)
	if err != nil {
		return fmt.Errorf("settings: save badges: %w", err)
	}
	return nil
}

// Get implements badge.EarnedBadgeStore.
func (r *SettingsRepo) Get(ctx context.Context, uid string) ([]string, error) {
	s, err := r.GetSettings(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.EarnedBadges, nil
}

// Save implements badge.EarnedBadgeStore.
func (r *SettingsRepo) Save(ctx context.Context, uid string, badgeIDs []string) error {
	return r.SaveEarnedBadges(ctx, uid, badgeIDs)
}

// DeleteAllByUser removes the settings row.
func (r *SettingsRepo) DeleteAllByUser(ctx context.Context, uid string) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM user_settings WHERE uid = $1", uid); err != nil {
		return fmt.Errorf("settings: delete all: %w", err)
	}
	return nil
}
