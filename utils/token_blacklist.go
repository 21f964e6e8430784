package utils

import (
	"context"
	"sync"
	"time"
)

var (
	blacklist   = map[string]time.Time{}
	blacklistMu sync.Mutex
)

// BlacklistToken revokes a token until its natural expiry, which is what
// logout means for stateless JWTs. Prefers Redis so revocation survives
// restarts and is shared across instances; falls back to an in-memory map.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, "jwt:blacklist:"+token, "1", ttl).Err()
		return
	}
	now := time.Now()
	blacklistMu.Lock()
	// Revoked tokens only leave the fallback map when somebody presents
	// them again; sweep the expired ones here instead.
	for t, exp := range blacklist {
		if now.After(exp) {
			delete(blacklist, t)
		}
	}
	blacklist[token] = expiresAt
	blacklistMu.Unlock()
}

// IsTokenBlacklisted reports whether the token was revoked and has not
// yet reached its natural expiry.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, "jwt:blacklist:"+token).Result()
		if err == nil {
			return n > 0
		}
		// On Redis error, fail-open to avoid locking everyone out
		return false
	}
	blacklistMu.Lock()
	exp, ok := blacklist[token]
	if ok && time.Now().After(exp) {
		delete(blacklist, token)
		ok = false
	}
	blacklistMu.Unlock()
	return ok
}
