package shared

import (
	"time"
)

// Event is a domain event carried over the in-process event bus.
type Event interface {
	// EventName returns the stable name used for subscription routing.
	EventName() string

	// OccurredAt returns when the event happened.
	OccurredAt() time.Time
}

// EventPublisher publishes domain events. Implemented by the messaging
// infrastructure; a nil publisher is valid and drops events.
type EventPublisher interface {
	Publish(event Event)
}

// Event names.
const (
	EventNameBadgeEarned        = "badge.earned"
	EventNameMentorCodeCreated  = "mentor.code_created"
	EventNameMentorCodeToggled  = "mentor.code_toggled"
	EventNameUsageQuotaExceeded = "usage.quota_exceeded"
	EventNameAccountDeleted     = "identity.account_deleted"
)

// BadgeEarned fires once per badge that enters the earned set for a user.
type BadgeEarned struct {
	UID     string
	BadgeID string
	At      time.Time
}

func (e BadgeEarned) EventName() string     { return EventNameBadgeEarned }
func (e BadgeEarned) OccurredAt() time.Time { return e.At }

// MentorCodeCreated fires when a user obtains a mentor share code.
type MentorCodeCreated struct {
	UID  string
	Code string
	At   time.Time
}

func (e MentorCodeCreated) EventName() string     { return EventNameMentorCodeCreated }
func (e MentorCodeCreated) OccurredAt() time.Time { return e.At }

// MentorCodeToggled fires when a user enables or disables their code.
type MentorCodeToggled struct {
	UID     string
	Code    string
	Enabled bool
	At      time.Time
}

func (e MentorCodeToggled) EventName() string     { return EventNameMentorCodeToggled }
func (e MentorCodeToggled) OccurredAt() time.Time { return e.At }

// UsageQuotaExceeded fires when a tip request is denied by the daily quota.
type UsageQuotaExceeded struct {
	UID    string
	Reason string // "user" or "global"
	At     time.Time
}

func (e UsageQuotaExceeded) EventName() string     { return EventNameUsageQuotaExceeded }
func (e UsageQuotaExceeded) OccurredAt() time.Time { return e.At }

// AccountDeleted fires after a user account and its data are torn down.
type AccountDeleted struct {
	UID string
	At  time.Time
}

func (e AccountDeleted) EventName() string     { return EventNameAccountDeleted }
func (e AccountDeleted) OccurredAt() time.Time { return e.At }
