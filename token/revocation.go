package token

import (
	"sync"
	"time"
)

// RevocationList records revoked access tokens by jti until they expire.
type RevocationList interface {
	Revoke(jti string, expiresAt time.Time)
	IsRevoked(jti string) bool
	Cleanup(now time.Time) int
}

// InMemoryRevocationList is a RevocationList guarded by a mutex.
type InMemoryRevocationList struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
}

func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		revoked: make(map[string]time.Time),
	}
}

func (l *InMemoryRevocationList) Revoke(jti string, expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = expiresAt
}

func (l *InMemoryRevocationList) IsRevoked(jti string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, exists := l.revoked[jti]
	return exists
}

// Cleanup forgets tokens that expired before now and returns how many.
func (l *InMemoryRevocationList) Cleanup(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for jti, exp := range l.revoked {
		if now.After(exp) {
			delete(l.revoked, jti)
			removed++
		}
	}
	return removed
}
