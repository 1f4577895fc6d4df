package tips

import (
	"context"
	"fmt"

	"github.com/language-study/study-hub/internal/application/command"
	"github.com/language-study/study-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// FALLBACK GENERATOR
// Rule table keyed on item kind and status. Serves when the upstream is
// unconfigured, down, or the daily quota is spent. Never fails.
// ══════════════════════════════════════════════════════════════════════════════

// Fallback is the local heuristic tip generator.
type Fallback struct{}

// NewFallback creates the generator.
func NewFallback() *Fallback {
	return &Fallback{}
}

// GenerateTip implements command.TipGenerator with canned advice.
func (f *Fallback) GenerateTip(_ context.Context, req command.TipRequest) (string, error) {
	if req.Kind == command.KindSkill {
		return skillTip(req), nil
	}
	return vocabularyTip(req), nil
}

func vocabularyTip(req command.TipRequest) string {
	word := req.Word
	if word == "" {
		word = "this word"
	}
	switch req.Status {
	case progress.StatusMastered:
		return fmt.Sprintf("You have mastered %q. Keep it fresh by using it in a sentence of your own this week.", word)
	case progress.StatusInProgress:
		return fmt.Sprintf("Write three short sentences with %q today. Spaced repetition beats one long session.", word)
	default:
		return fmt.Sprintf("Start with %q by saying it out loud and linking it to a picture or situation you know.", word)
	}
}

func skillTip(req command.TipRequest) string {
	name := req.Name
	if name == "" {
		name = "this skill"
	}
	switch req.Status {
	case progress.StatusMastered:
		return fmt.Sprintf("%q is mastered. Teach it to someone else or record yourself explaining it to lock it in.", name)
	case progress.StatusInProgress:
		return fmt.Sprintf("Break %q into one small subtask and finish just that today. Momentum matters more than volume.", name)
	default:
		return fmt.Sprintf("Schedule fifteen minutes for %q tomorrow. A tiny first session is the hardest and most important one.", name)
	}
}
