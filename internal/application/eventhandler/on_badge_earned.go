// Package eventhandler contains subscribers for domain events.
package eventhandler

import (
	"github.com/language-study/study-hub/internal/domain/badge"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/pkg/logger"
)

// BadgeEarnedLogger announces newly earned badges in the structured log.
// It is the audit trail for the achievement system; the UI learns about
// new badges from the snapshot response, not from this handler.
type BadgeEarnedLogger struct {
	log *logger.Logger
}

// NewBadgeEarnedLogger creates the handler.
func NewBadgeEarnedLogger(log *logger.Logger) *BadgeEarnedLogger {
	if log == nil {
		log = logger.Default()
	}
	return &BadgeEarnedLogger{log: log}
}

// Handle processes one event. Non-badge events are ignored.
func (h *BadgeEarnedLogger) Handle(e shared.Event) {
	earned, ok := e.(shared.BadgeEarned)
	if !ok {
		return
	}

	fields := []logger.Field{logger.UserID(earned.UID), logger.BadgeID(earned.BadgeID)}
	if b, found := badge.ByID(earned.BadgeID); found {
		fields = append(fields, logger.String("badge_name", b.Name))
	}
	h.log.Info("badge earned", fields...)
}

// QuotaExceededLogger records quota denials for capacity planning.
type QuotaExceededLogger struct {
	log *logger.Logger
}

// NewQuotaExceededLogger creates the handler.
func NewQuotaExceededLogger(log *logger.Logger) *QuotaExceededLogger {
	if log == nil {
		log = logger.Default()
	}
	return &QuotaExceededLogger{log: log}
}

// Handle processes one event. Non-quota events are ignored.
func (h *QuotaExceededLogger) Handle(e shared.Event) {
	denied, ok := e.(shared.UsageQuotaExceeded)
	if !ok {
		return
	}
	h.log.Warn("tip quota exceeded", logger.UserID(denied.UID), logger.String("scope", denied.Reason))
}
