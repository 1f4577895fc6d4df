// Package badge implements the achievement system: a static ordered rule
// table evaluated against a progress snapshot. Badges are revocable - the
// earned set is recomputed wholesale on every evaluation, so a badge
// disappears when the state that earned it is undone.
package badge

import "github.com/language-study/study-hub/internal/domain/progress"

// Badge is one achievement definition. IDs are permanent: they are stored
// in user documents and must never change meaning.
type Badge struct {
	ID          string
	Name        string
	Description string
	Icon        string

	// Check reports whether the snapshot satisfies this badge.
	Check func(s *progress.Snapshot) bool
}

// Rules returns the badge table in evaluation order. Newly earned badges
// are reported in this order.
func Rules() []Badge {
	return []Badge{
		{
			ID:          "first_word",
			Name:        "First Word",
			Description: "Add your first vocabulary word",
			Icon:        "✏️",
			Check: func(s *progress.Snapshot) bool {
				return len(s.Vocabulary) >= 1
			},
		},
		{
			ID:          "word_collector",
			Name:        "Word Collector",
			Description: "Have 25 words in your vocabulary",
			Icon:        "📚",
			Check: func(s *progress.Snapshot) bool {
				return len(s.Vocabulary) >= 25
			},
		},
		{
			ID:          "first_mastered_word",
			Name:        "Breakthrough",
			Description: "Master your first word",
			Icon:        "💡",
			Check: func(s *progress.Snapshot) bool {
				return s.VocabularyStats().Mastered >= 1
			},
		},
		{
			ID:          "ten_mastered_words",
			Name:        "Wordsmith",
			Description: "Master 10 words",
			Icon:        "🏆",
			Check: func(s *progress.Snapshot) bool {
				return s.VocabularyStats().Mastered >= 10
			},
		},
		{
			ID:          "category_curator",
			Name:        "Curator",
			Description: "Use words across 3 different categories",
			Icon:        "🗂️",
			Check: func(s *progress.Snapshot) bool {
				return s.CategoriesInUse() >= 3
			},
		},
		{
			ID:          "first_skill",
			Name:        "New Horizons",
			Description: "Add your first skill",
			Icon:        "🌱",
			Check: func(s *progress.Snapshot) bool {
				return len(s.Skills) >= 1
			},
		},
		{
			ID:          "skill_master",
			Name:        "Skill Master",
			Description: "Master 5 skills",
			Icon:        "🎯",
			Check: func(s *progress.Snapshot) bool {
				return s.SkillStats().Mastered >= 5
			},
		},
		{
			ID:          "first_portfolio",
			Name:        "On Stage",
			Description: "Add your first portfolio entry",
			Icon:        "🎬",
			Check: func(s *progress.Snapshot) bool {
				return len(s.Portfolio) >= 1
			},
		},
		{
			ID:          "showcase_full",
			Name:        "Showcase",
			Description: "Feature 3 portfolio entries",
			Icon:        "⭐",
			Check: func(s *progress.Snapshot) bool {
				return s.PortfolioSummary().Top >= progress.MaxTopEntries
			},
		},
		{
			ID:          "well_rounded",
			Name:        "Well Rounded",
			Description: "Have vocabulary, a skill, and a portfolio entry",
			Icon:        "🧭",
			Check: func(s *progress.Snapshot) bool {
				return len(s.Vocabulary) >= 1 && len(s.Skills) >= 1 && len(s.Portfolio) >= 1
			},
		},
	}
}

// ByID returns the badge definition for an id, or false for an id not in
// the current table (stale ids in stored documents are tolerated).
func ByID(id string) (Badge, bool) {
	for _, b := range Rules() {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
