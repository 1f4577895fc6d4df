// Package progress contains the domain model for a user's study progress:
// vocabulary, skills with subtasks, portfolio entries, and categories.
// This is the core of the business logic - there are no external dependencies.
package progress

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/language-study/study-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the three-value progress status shared by vocabulary items,
// skills, and subtasks.
type Status string

const (
	// StatusNotStarted - the item has not been worked on yet.
	StatusNotStarted Status = "not_started"
	// StatusInProgress - the item is being worked on.
	StatusInProgress Status = "in_progress"
	// StatusMastered - the terminal status.
	StatusMastered Status = "mastered"
)

// IsValid reports whether the status is one of the three known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusMastered:
		return true
	default:
		return false
	}
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", shared.ErrInvalidStatus
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// VOCABULARY
// ══════════════════════════════════════════════════════════════════════════════

// VocabularyItem is a single word the user is learning.
// Field names at the JSON boundary are a compatibility surface with the
// stored document shape; do not rename them.
type VocabularyItem struct {
	ID          string    `json:"id"`
	Word        string    `json:"word"`
	Translation string    `json:"translation,omitempty"`
	Category    string    `json:"category"`
	Status      Status    `json:"status"`
	DateAdded   time.Time `json:"dateAdded"`
}

// NewVocabularyItem creates a vocabulary item in the initial status.
// The word must be non-blank; the category must already exist (checked by
// the caller against the user's category list).
func NewVocabularyItem(id, word, translation, category string) (VocabularyItem, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return VocabularyItem{}, shared.NewDomainError("progress", "NewVocabularyItem", shared.ErrEmptyValue, "word cannot be blank")
	}
	if strings.TrimSpace(category) == "" {
		return VocabularyItem{}, shared.NewDomainError("progress", "NewVocabularyItem", shared.ErrEmptyValue, "category cannot be blank")
	}
	return VocabularyItem{
		ID:          id,
		Word:        word,
		Translation: strings.TrimSpace(translation),
		Category:    category,
		Status:      StatusNotStarted,
		DateAdded:   time.Now().UTC(),
	}, nil
}

// ParseEntryList splits newline-separated user input into trimmed, non-empty
// entries. Returns ErrEmptyBatch when nothing remains.
func ParseEntryList(raw string) ([]string, error) {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return nil, shared.ErrEmptyBatch
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILLS & SUBTASKS
// ══════════════════════════════════════════════════════════════════════════════

// Subtask belongs exclusively to its parent skill; it has no independent
// lifecycle and the whole list is rewritten on every subtask mutation.
type Subtask struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Status    Status    `json:"status"`
	DateAdded time.Time `json:"dateAdded"`
}

// Skill is a named ability the user is developing, with optional subtasks.
type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Subtasks  []Subtask `json:"subtasks"`
	DateAdded time.Time `json:"dateAdded"`
}

// NewSkill creates a skill in the initial status with no subtasks.
func NewSkill(id, name string) (Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Skill{}, shared.NewDomainError("progress", "NewSkill", shared.ErrEmptyValue, "skill name cannot be blank")
	}
	return Skill{
		ID:        id,
		Name:      name,
		Status:    StatusNotStarted,
		Subtasks:  []Subtask{},
		DateAdded: time.Now().UTC(),
	}, nil
}

// NewSubtask creates a subtask in the initial status.
func NewSubtask(id, text string) (Subtask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Subtask{}, shared.NewDomainError("progress", "NewSubtask", shared.ErrEmptyValue, "subtask text cannot be blank")
	}
	return Subtask{
		ID:        id,
		Text:      text,
		Status:    StatusNotStarted,
		DateAdded: time.Now().UTC(),
	}, nil
}

// WithSubtaskAdded returns the subtask list with st appended.
func (s Skill) WithSubtaskAdded(st Subtask) []Subtask {
	out := make([]Subtask, 0, len(s.Subtasks)+1)
	out = append(out, s.Subtasks...)
	return append(out, st)
}

// WithSubtaskRemoved returns the subtask list without the given subtask.
// Returns ErrItemNotFound when the subtask is not present.
func (s Skill) WithSubtaskRemoved(subtaskID string) ([]Subtask, error) {
	out := make([]Subtask, 0, len(s.Subtasks))
	found := false
	for _, st := range s.Subtasks {
		if st.ID == subtaskID {
			found = true
			continue
		}
		out = append(out, st)
	}
	if !found {
		return nil, shared.ErrItemNotFound
	}
	return out, nil
}

// WithSubtaskStatus returns the subtask list with one subtask's status
// changed. Returns ErrItemNotFound when the subtask is not present.
func (s Skill) WithSubtaskStatus(subtaskID string, status Status) ([]Subtask, error) {
	if !status.IsValid() {
		return nil, shared.ErrInvalidStatus
	}
	out := make([]Subtask, len(s.Subtasks))
	copy(out, s.Subtasks)
	for i := range out {
		if out[i].ID == subtaskID {
			out[i].Status = status
			return out, nil
		}
	}
	return nil, shared.ErrItemNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// PORTFOLIO
// ══════════════════════════════════════════════════════════════════════════════

// PortfolioType identifies the hosting platform of a portfolio link.
type PortfolioType string

const (
	// PortfolioYouTube - a YouTube video link.
	PortfolioYouTube PortfolioType = "youtube"
	// PortfolioSoundCloud - a SoundCloud track link.
	PortfolioSoundCloud PortfolioType = "soundcloud"
)

// MaxTopEntries is the maximum number of featured portfolio entries per user.
const MaxTopEntries = 3

// PortfolioEntry is one media item in the user's portfolio.
type PortfolioEntry struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Link      string        `json:"link"`
	Type      PortfolioType `json:"type"`
	VideoID   string        `json:"videoId,omitempty"`
	IsTop     bool          `json:"isTop"`
	DateAdded time.Time     `json:"dateAdded"`
}

// NewPortfolioEntry classifies the link and creates an entry.
// Fails when title or link is blank, or when the link matches neither
// YouTube nor SoundCloud.
func NewPortfolioEntry(id, title, link string) (PortfolioEntry, error) {
	title = strings.TrimSpace(title)
	link = strings.TrimSpace(link)
	if title == "" || link == "" {
		return PortfolioEntry{}, shared.NewDomainError("progress", "NewPortfolioEntry", shared.ErrEmptyValue, "title and link are required")
	}

	ptype, ok := PortfolioTypeOf(link)
	if !ok {
		return PortfolioEntry{}, shared.ErrUnknownLinkType
	}

	entry := PortfolioEntry{
		ID:        id,
		Title:     title,
		Link:      link,
		Type:      ptype,
		IsTop:     false,
		DateAdded: time.Now().UTC(),
	}
	if ptype == PortfolioYouTube {
		if vid, ok := YouTubeID(link); ok {
			entry.VideoID = vid
		}
	}
	return entry, nil
}

// EmbedHTML renders the player markup for the entry. Title and link are
// escaped before they reach the attribute positions.
func (e PortfolioEntry) EmbedHTML() string {
	switch e.Type {
	case PortfolioYouTube:
		if e.VideoID == "" {
			return ""
		}
		return fmt.Sprintf(
			`<iframe src="https://www.youtube.com/embed/%s" title="%s" frameborder="0" allowfullscreen></iframe>`,
			EscapeHTML(e.VideoID), EscapeHTML(e.Title))
	case PortfolioSoundCloud:
		return fmt.Sprintf(
			`<iframe src="https://w.soundcloud.com/player/?url=%s" title="%s" frameborder="0"></iframe>`,
			EscapeHTML(url.QueryEscape(e.Link)), EscapeHTML(e.Title))
	default:
		return ""
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORIES
// ══════════════════════════════════════════════════════════════════════════════

// GeneralCategory is always present, always first, and cannot be deleted.
const GeneralCategory = "General"

// CategoryList is a user-scoped ordered list of category names.
type CategoryList []string

// DefaultCategories returns the initial category list for a new user.
func DefaultCategories() CategoryList {
	return CategoryList{GeneralCategory}
}

// Normalized returns the list with the General invariant restored:
// General present and first, order of the rest preserved.
func (c CategoryList) Normalized() CategoryList {
	out := CategoryList{GeneralCategory}
	for _, name := range c {
		if name != GeneralCategory {
			out = append(out, name)
		}
	}
	return out
}

// Contains reports whether the list has the category (exact match).
func (c CategoryList) Contains(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

// WithAdded returns the list with the category appended.
// Duplicate check is case-sensitive exact match, per the stored data model.
func (c CategoryList) WithAdded(name string) (CategoryList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("progress", "AddCategory", shared.ErrEmptyValue, "category name cannot be blank")
	}
	if c.Contains(name) {
		return nil, shared.ErrDuplicateCategory
	}
	out := make(CategoryList, 0, len(c)+1)
	out = append(out, c...)
	return append(out, name), nil
}

// WithRemoved returns the list without the category.
// General is protected; removing an absent category is a not-found error.
func (c CategoryList) WithRemoved(name string) (CategoryList, error) {
	if name == GeneralCategory {
		return nil, shared.ErrProtectedCategory
	}
	if !c.Contains(name) {
		return nil, shared.NewDomainError("progress", "DeleteCategory", shared.ErrNotFound, "category not found")
	}
	out := make(CategoryList, 0, len(c)-1)
	for _, n := range c {
		if n != name {
			out = append(out, n)
		}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// Settings is the per-user settings document. JSON field names match the
// stored document shape and must not change.
type Settings struct {
	EarnedBadges        []string `json:"earnedBadges"`
	AchievementsEnabled bool     `json:"achievementsEnabled"`
	ProgressEnabled     bool     `json:"progressEnabled"`
	MentorCodeEnabled   bool     `json:"mentorCodeEnabled"`
	FirstLogin          bool     `json:"firstLogin"`
}

// DefaultSettings returns the settings for a new user. The review-mode
// gate (ProgressEnabled) defaults off: fail safe, hidden until the owner
// explicitly enables it.
func DefaultSettings() Settings {
	return Settings{
		EarnedBadges:        []string{},
		AchievementsEnabled: true,
		ProgressEnabled:     false,
		MentorCodeEnabled:   false,
		FirstLogin:          true,
	}
}
