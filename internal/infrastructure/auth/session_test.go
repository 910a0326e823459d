package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcms/backend/internal/infrastructure/config"
)

func newTestSessionManager() *SessionManager {
	return NewSessionManager(config.SessionConfig{
		Secret:     "test-secret-key-at-least-32-characters",
		Issuer:     "qc-test",
		Expiration: time.Hour,
	})
}

func TestSessionManager_IssueAndParse(t *testing.T) {
	m := newTestSessionManager()

	s, err := m.Issue(SessionUser{ID: 7, Username: "alice", Role: "inspector"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.NotEmpty(t, s.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, 5*time.Second)

	claims, err := m.Parse(s.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "inspector", claims.Role)
	assert.Equal(t, s.ID, claims.ID)
	assert.Equal(t, "7", claims.Subject)
}

func TestSessionManager_Parse(t *testing.T) {
	m := newTestSessionManager()
	s, err := m.Issue(SessionUser{ID: 1, Username: "bob", Role: "admin"})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestSessionManager()
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(s.Token)
		assert.ErrorIs(t, err, ErrExpiredSession)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSessionManager(config.SessionConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "qc-test"})
		_, err := other.Parse(s.Token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewSessionManager(config.SessionConfig{Secret: "test-secret-key-at-least-32-characters", Issuer: "someone-else"})
		_, err := other.Parse(s.Token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestNewSessionManager_DefaultExpiration(t *testing.T) {
	m := NewSessionManager(config.SessionConfig{Secret: "x"})
	assert.Equal(t, 8*time.Hour, m.Expiration())
}

func TestInMemoryRevocationList(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	l := NewInMemoryRevocationList()
	l.now = func() time.Time { return now }

	require.NoError(t, l.Revoke(ctx, "s1", time.Minute))
	require.NoError(t, l.Revoke(ctx, "ignored", 0))

	revoked, err := l.IsRevoked(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = l.IsRevoked(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 1, l.Len())

	now = now.Add(2 * time.Minute)
	revoked, _ = l.IsRevoked(ctx, "s1")
	assert.False(t, revoked)

	require.NoError(t, l.Revoke(ctx, "s3", time.Minute))
	assert.Equal(t, 1, l.Len(), "expired entries are dropped on write")
}

func TestPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}
