package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList remembers sessions ended before their expiry
type RevocationList interface {
	// Revoke marks the session id as ended for ttl, the time left until it
	// would have expired anyway.
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// RedisRevocationList stores revoked session ids in Redis with a TTL
type RedisRevocationList struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisRevocationList wraps an existing client
func NewRedisRevocationList(client redis.UniversalClient) *RedisRevocationList {
	return &RedisRevocationList{client: client, keyPrefix: "qc:session:revoked:"}
}

// Revoke implements RevocationList
func (l *RedisRevocationList) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, l.keyPrefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsRevoked implements RevocationList
func (l *RedisRevocationList) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.keyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return n > 0, nil
}

// InMemoryRevocationList is a single-process RevocationList. Entries are
// dropped lazily once they expire.
type InMemoryRevocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewInMemoryRevocationList creates an empty list
func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke implements RevocationList
func (l *InMemoryRevocationList) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, until := range l.revoked {
		if !now.Before(until) {
			delete(l.revoked, id)
		}
	}
	l.revoked[sessionID] = now.Add(ttl)
	return nil
}

// IsRevoked implements RevocationList
func (l *InMemoryRevocationList) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	until, ok := l.revoked[sessionID]
	return ok && l.now().Before(until), nil
}

// Len returns the number of tracked entries, expired ones included
func (l *InMemoryRevocationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.revoked)
}
