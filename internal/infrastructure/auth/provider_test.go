package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/language-study/study-hub/internal/domain/identity"
	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/internal/infrastructure/persistence/postgres"
)

// memUserStore is an in-memory UserStore for provider tests.
type memUserStore struct {
	users       map[string]postgres.UserRecord // by uid
	sessions    map[string]identity.Session
	actionCodes map[string]postgres.ActionCodeRecord
	now         func() time.Time
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users:       make(map[string]postgres.UserRecord),
		sessions:    make(map[string]identity.Session),
		actionCodes: make(map[string]postgres.ActionCodeRecord),
		now:         time.Now,
	}
}

func (m *memUserStore) Create(_ context.Context, rec postgres.UserRecord) error {
	for _, u := range m.users {
		if u.User.Email == rec.User.Email {
			return shared.ErrEmailInUse
		}
	}
	m.users[rec.User.UID] = rec
	return nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*postgres.UserRecord, error) {
	for _, u := range m.users {
		if u.User.Email == email {
			rec := u
			return &rec, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (m *memUserStore) GetByUID(_ context.Context, uid string) (*postgres.UserRecord, error) {
	rec, ok := m.users[uid]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return &rec, nil
}

func (m *memUserStore) SetPasswordHash(_ context.Context, uid, hash string) error {
	rec, ok := m.users[uid]
	if !ok {
		return shared.ErrUserNotFound
	}
	rec.PasswordHash = hash
	m.users[uid] = rec
	return nil
}

func (m *memUserStore) MarkEmailVerified(_ context.Context, uid string) error {
	rec, ok := m.users[uid]
	if !ok {
		return shared.ErrUserNotFound
	}
	rec.User.EmailVerified = true
	m.users[uid] = rec
	return nil
}

func (m *memUserStore) TouchLastLogin(_ context.Context, uid string, at time.Time) error {
	rec, ok := m.users[uid]
	if !ok {
		return shared.ErrUserNotFound
	}
	rec.User.LastLoginAt = at
	m.users[uid] = rec
	return nil
}

func (m *memUserStore) Delete(_ context.Context, uid string) error {
	delete(m.users, uid)
	for token, s := range m.sessions {
		if s.UID == uid {
			delete(m.sessions, token)
		}
	}
	return nil
}

func (m *memUserStore) CreateSession(_ context.Context, s identity.Session) error {
	m.sessions[s.Token] = s
	return nil
}

func (m *memUserStore) GetSession(_ context.Context, token string) (*identity.Session, error) {
	s, ok := m.sessions[token]
	if !ok || !s.ExpiresAt.After(m.now()) {
		return nil, shared.ErrUnauthorized
	}
	return &s, nil
}

func (m *memUserStore) DeleteSession(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *memUserStore) CreateActionCode(_ context.Context, rec postgres.ActionCodeRecord) error {
	m.actionCodes[rec.Code] = rec
	return nil
}

func (m *memUserStore) ConsumeActionCode(_ context.Context, code string) (*postgres.ActionCodeRecord, error) {
	rec, ok := m.actionCodes[code]
	if !ok || !rec.ExpiresAt.After(m.now()) {
		return nil, shared.ErrActionCodeInvalid
	}
	delete(m.actionCodes, code)
	return &rec, nil
}

func newTestProvider(t *testing.T) (*Provider, *memUserStore) {
	t.Helper()
	store := newMemUserStore()
	return NewProvider(store, WithBcryptCost(bcrypt.MinCost)), store
}

func TestSignUpOpensSession(t *testing.T) {
	p, store := newTestProvider(t)
	ctx := context.Background()

	user, session, err := p.SignUp(ctx, "  Learner@Example.COM ", "correct-horse")
	require.NoError(t, err)

	assert.NotEmpty(t, user.UID)
	assert.Equal(t, "learner@example.com", user.Email)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, user.UID, session.UID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	// password is stored hashed, never verbatim
	rec := store.users[user.UID]
	assert.NotEqual(t, "correct-horse", rec.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte("correct-horse")))
}

func TestSignUpRejectsBadInput(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, _, err := p.SignUp(ctx, "not-an-email", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, _, err = p.SignUp(ctx, "a@b.com", "short")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, _, err := p.SignUp(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	_, _, err = p.SignUp(ctx, "A@B.com", "other-password")
	assert.ErrorIs(t, err, shared.ErrEmailInUse)
}

func TestSignInAndResolveSession(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	created, _, err := p.SignUp(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	user, session, err := p.SignIn(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, created.UID, user.UID)
	assert.False(t, user.LastLoginAt.IsZero())

	resolved, err := p.UserBySession(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, created.UID, resolved.UID)
}

func TestSignInWrongCredentials(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, _, err := p.SignUp(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	// wrong password and unknown email are indistinguishable
	_, _, err = p.SignIn(ctx, "a@b.com", "wrong-password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = p.SignIn(ctx, "nobody@b.com", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSignOutRevokesToken(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, session, err := p.SignUp(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, session.Token))

	_, err = p.UserBySession(ctx, session.Token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyEmailFlow(t *testing.T) {
	p, store := newTestProvider(t)
	ctx := context.Background()

	user, _, err := p.SignUp(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	code, err := p.IssueActionCode(ctx, "a@b.com", identity.ActionVerifyEmail)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	require.NoError(t, p.ApplyActionCode(ctx, code, ""))
	assert.True(t, store.users[user.UID].User.EmailVerified)

	// single use
	err = p.ApplyActionCode(ctx, code, "")
	assert.ErrorIs(t, err, shared.ErrActionCodeInvalid)
}

func TestResetPasswordFlow(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	_, _, err := p.SignUp(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	code, err := p.IssueActionCode(ctx, "a@b.com", identity.ActionResetPassword)
	require.NoError(t, err)

	require.NoError(t, p.ApplyActionCode(ctx, code, "brand-new-password"))

	_, _, err = p.SignIn(ctx, "a@b.com", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = p.SignIn(ctx, "a@b.com", "brand-new-password")
	assert.NoError(t, err)
}

func TestUpdatePasswordChecksCurrent(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	user, _, err := p.SignUp(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	err = p.UpdatePassword(ctx, user.UID, "wrong-password", "brand-new-password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	require.NoError(t, p.UpdatePassword(ctx, user.UID, "correct-horse", "brand-new-password"))

	_, _, err = p.SignIn(ctx, "a@b.com", "brand-new-password")
	assert.NoError(t, err)
}

func TestDeleteUserRevokesSessions(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	user, session, err := p.SignUp(ctx, "a@b.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, p.DeleteUser(ctx, user.UID))

	_, err = p.UserBySession(ctx, session.Token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
