package badge

import "github.com/language-study/study-hub/internal/domain/progress"

// Set is an earned-badge set keyed by badge id.
type Set map[string]struct{}

// SetFromIDs builds a set from a stored id list. Unknown ids are kept so a
// later table change does not silently drop history mid-flight; they are
// pruned only by re-evaluation.
func SetFromIDs(ids []string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the set's ids in rule-table order. Ids not in the table are
// dropped.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for _, b := range Rules() {
		if s.Has(b.ID) {
			out = append(out, b.ID)
		}
	}
	return out
}

// Engine evaluates the badge table against snapshots.
type Engine struct {
	rules []Badge
}

// NewEngine returns an engine over the standard rule table.
func NewEngine() *Engine {
	return &Engine{rules: Rules()}
}

// Evaluate recomputes the full earned set from the snapshot. The result
// replaces any previously stored set: evaluation is the single source of
// truth and never merges with history.
func (e *Engine) Evaluate(s *progress.Snapshot) Set {
	earned := make(Set)
	for _, b := range e.rules {
		if b.Check(s) {
			earned[b.ID] = struct{}{}
		}
	}
	return earned
}

// EarnDelta returns ids present in curr but not prev, in rule-table order.
// These are the badges to announce.
func (e *Engine) EarnDelta(prev, curr Set) []string {
	var out []string
	for _, b := range e.rules {
		if curr.Has(b.ID) && !prev.Has(b.ID) {
			out = append(out, b.ID)
		}
	}
	return out
}
