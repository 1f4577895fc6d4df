package progress

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotMaxAge is how long a loaded snapshot may be reused before it must
// be re-fetched from the stores.
const SnapshotMaxAge = 5 * time.Minute

// Snapshot is the full study state of one user loaded at a point in time.
// It is the sole input to badge evaluation and to all rendered views, so
// reads stay consistent within one request.
type Snapshot struct {
	OwnerUID   string           `json:"ownerUid"`
	Vocabulary []VocabularyItem `json:"vocabulary"`
	Skills     []Skill          `json:"skills"`
	Portfolio  []PortfolioEntry `json:"portfolio"`
	Categories CategoryList     `json:"categories"`
	Settings   Settings         `json:"settings"`
	LoadedAt   time.Time        `json:"loadedAt"`

	// Partial is set when one or more collections failed to load and were
	// substituted with empty slices. A partial snapshot is never cached and
	// never drives badge persistence.
	Partial bool `json:"partial,omitempty"`
}

// IsStale reports whether the snapshot is older than SnapshotMaxAge.
func (s *Snapshot) IsStale(now time.Time) bool {
	return now.Sub(s.LoadedAt) > SnapshotMaxAge
}

// StatusCounts is a breakdown of items by progress status.
type StatusCounts struct {
	Total      int `json:"total"`
	NotStarted int `json:"notStarted"`
	InProgress int `json:"inProgress"`
	Mastered   int `json:"mastered"`
}

func (c *StatusCounts) add(status Status) {
	c.Total++
	switch status {
	case StatusInProgress:
		c.InProgress++
	case StatusMastered:
		c.Mastered++
	default:
		c.NotStarted++
	}
}

// VocabularyStats reduces the vocabulary collection to status counts.
func (s *Snapshot) VocabularyStats() StatusCounts {
	var c StatusCounts
	for _, item := range s.Vocabulary {
		c.add(item.Status)
	}
	return c
}

// SkillStats reduces the skill collection to status counts. Subtasks are
// not counted; only the parent skill's status matters for stats.
func (s *Snapshot) SkillStats() StatusCounts {
	var c StatusCounts
	for _, sk := range s.Skills {
		c.add(sk.Status)
	}
	return c
}

// PortfolioStats summarizes the portfolio collection.
type PortfolioStats struct {
	Total      int `json:"total"`
	Top        int `json:"top"`
	YouTube    int `json:"youtube"`
	SoundCloud int `json:"soundcloud"`
}

// PortfolioSummary reduces the portfolio collection to counts.
func (s *Snapshot) PortfolioSummary() PortfolioStats {
	var p PortfolioStats
	for _, e := range s.Portfolio {
		p.Total++
		if e.IsTop {
			p.Top++
		}
		switch e.Type {
		case PortfolioYouTube:
			p.YouTube++
		case PortfolioSoundCloud:
			p.SoundCloud++
		}
	}
	return p
}

// CategoriesInUse counts distinct categories actually referenced by at
// least one vocabulary item.
func (s *Snapshot) CategoriesInUse() int {
	seen := make(map[string]struct{}, len(s.Categories))
	for _, item := range s.Vocabulary {
		seen[item.Category] = struct{}{}
	}
	return len(seen)
}

// TopEntries returns the featured portfolio entries in stored order.
func (s *Snapshot) TopEntries() []PortfolioEntry {
	var out []PortfolioEntry
	for _, e := range s.Portfolio {
		if e.IsTop {
			out = append(out, e)
		}
	}
	return out
}

// FindSkill returns the skill with the given id, or nil.
func (s *Snapshot) FindSkill(id string) *Skill {
	for i := range s.Skills {
		if s.Skills[i].ID == id {
			return &s.Skills[i]
		}
	}
	return nil
}

// FindVocabulary returns the vocabulary item with the given id, or nil.
func (s *Snapshot) FindVocabulary(id string) *VocabularyItem {
	for i := range s.Vocabulary {
		if s.Vocabulary[i].ID == id {
			return &s.Vocabulary[i]
		}
	}
	return nil
}

// FindPortfolio returns the portfolio entry with the given id, or nil.
func (s *Snapshot) FindPortfolio(id string) *PortfolioEntry {
	for i := range s.Portfolio {
		if s.Portfolio[i].ID == id {
			return &s.Portfolio[i]
		}
	}
	return nil
}
