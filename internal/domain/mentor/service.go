package mentor

import (
	"context"
	"errors"
	"time"

	"github.com/language-study/study-hub/internal/domain/shared"
)

// maxGenerateAttempts bounds collision retries during code creation.
const maxGenerateAttempts = 10

// Service implements the mentor-code use cases over a Repository.
type Service struct {
	repo   Repository
	events shared.EventPublisher
	now    func() time.Time
}

// NewService creates a mentor code service. events may be nil.
func NewService(repo Repository, events shared.EventPublisher) *Service {
	return &Service{repo: repo, events: events, now: time.Now}
}

// Get returns the user's code without minting one. Returns
// ErrCodeNotFound when the user has never created a code.
func (s *Service) Get(ctx context.Context, uid string) (*Code, error) {
	return s.repo.GetByUser(ctx, uid)
}

// GetOrCreate returns the user's existing code, or mints one. A fresh code
// starts enabled: creating a code is the act of opening sharing. On
// persistent value collisions it gives up after 10 attempts with
// ErrCodeGeneration.
func (s *Service) GetOrCreate(ctx context.Context, uid string) (*Code, error) {
	existing, err := s.repo.GetByUser(ctx, uid)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		value, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		c := Code{Code: value, UserID: uid, Enabled: true, CreatedAt: s.now().UTC()}
		err = s.repo.Create(ctx, c)
		if err == nil {
			s.publish(shared.MentorCodeCreated{UID: uid, Code: value, At: c.CreatedAt})
			return &c, nil
		}
		if errors.Is(err, shared.ErrAlreadyExists) {
			continue
		}
		return nil, err
	}
	return nil, shared.ErrCodeGeneration
}

// SetEnabled flips sharing on or off for the user's code. The code must
// already exist.
func (s *Service) SetEnabled(ctx context.Context, uid string, enabled bool) (*Code, error) {
	c, err := s.repo.GetByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if c.Enabled == enabled {
		return c, nil
	}
	if err := s.repo.SetEnabled(ctx, uid, enabled); err != nil {
		return nil, err
	}
	c.Enabled = enabled
	s.publish(shared.MentorCodeToggled{UID: uid, Code: c.Code, Enabled: enabled, At: s.now().UTC()})
	return c, nil
}

// Regenerate replaces the user's code with a fresh one, invalidating any
// copies already handed out. The new code keeps the old enablement flag.
func (s *Service) Regenerate(ctx context.Context, uid string) (*Code, error) {
	old, err := s.repo.GetByUser(ctx, uid)
	hadOld, wasEnabled := false, false
	switch {
	case err == nil:
		hadOld, wasEnabled = true, old.Enabled
		if err := s.repo.DeleteByUser(ctx, uid); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		// nothing to replace
	default:
		return nil, err
	}

	c, err := s.GetOrCreate(ctx, uid)
	if err != nil {
		return nil, err
	}
	if hadOld && c.Enabled != wasEnabled {
		return s.SetEnabled(ctx, uid, wasEnabled)
	}
	return c, nil
}

// Resolve maps raw viewer input to the owning user's uid. The checks run
// in a fixed order: shape first (no lookup for garbage input), then
// existence, then the owner's enablement flag.
func (s *Service) Resolve(ctx context.Context, raw string) (ownerUID string, err error) {
	code, err := NormalizeCode(raw)
	if err != nil {
		return "", err
	}

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.ErrCodeNotFound
		}
		return "", err
	}
	if !c.Enabled {
		return "", shared.ErrCodeDisabled
	}
	return c.UserID, nil
}

func (s *Service) publish(e shared.Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}
