package utils

import (
	"context"
	"sync"
	"time"
)

const defaultStateTTL = 10 * time.Minute

var (
	stateStore   = map[string]time.Time{}
	stateStoreMu sync.Mutex
)

// SaveState stores a single-use OAuth state token until its TTL runs out.
// Prefers Redis so the token survives restarts and is visible to every
// instance; falls back to an in-memory map.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, "oauth:state:"+state, "1", ttl).Err()
		return
	}
	now := time.Now()
	stateStoreMu.Lock()
	// Abandoned logins never consume their state; sweep expired entries
	// on each save.
	for s, exp := range stateStore {
		if now.After(exp) {
			delete(stateStore, s)
		}
	}
	stateStore[state] = now.Add(ttl)
	stateStoreMu.Unlock()
}

// ConsumeState removes the state token and reports whether it was still
// live. Under Redis, GETDEL keeps consumption single-use across instances.
func ConsumeState(state string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if v, err := rc.GetDel(ctx, "oauth:state:"+state).Result(); err == nil {
			return v != ""
		}
		return false
	}
	stateStoreMu.Lock()
	exp, ok := stateStore[state]
	delete(stateStore, state)
	stateStoreMu.Unlock()
	return ok && time.Now().Before(exp)
}
