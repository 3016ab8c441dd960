package utils

import (
	"context"
	"sync"
	"time"
)

// One-time token purposes.
const (
	PurposePasswordReset     = "password-reset"
	PurposeEmailVerification = "email-verify"
)

type oneTimeEntry struct {
	hash      string
	expiresAt time.Time
}

var (
	oneTimeStore   = map[string]oneTimeEntry{}
	oneTimeStoreMu sync.Mutex
)

func oneTimeKey(purpose, email string) string {
	return "token:" + purpose + ":" + email
}

// SaveOneTimeToken persists the hash of a one-time token for an email with a
// TTL. Only the hash is stored; the plaintext travels out-of-band. Prefers
// Redis, falls back to memory.
func SaveOneTimeToken(purpose, email, hash string, ttl time.Duration) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, oneTimeKey(purpose, email), hash, ttl).Err(); err == nil {
			return
		}
	}
	oneTimeStoreMu.Lock()
	oneTimeStore[oneTimeKey(purpose, email)] = oneTimeEntry{hash: hash, expiresAt: time.Now().Add(ttl)}
	oneTimeStoreMu.Unlock()
}

// VerifyAndConsumeOneTimeToken recomputes the hash of the supplied plaintext
// and compares it with the stored one, consuming the entry when it matches.
func VerifyAndConsumeOneTimeToken(purpose, email, plain string) bool {
	want := HashOneTimeToken(plain)
	key := oneTimeKey(purpose, email)

	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if stored, err := rc.GetDel(ctx, key).Result(); err == nil {
			return stored == want
		}
		// Redis unavailable: fall through to the memory fallback.
	}

	oneTimeStoreMu.Lock()
	defer oneTimeStoreMu.Unlock()
	entry, ok := oneTimeStore[key]
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		delete(oneTimeStore, key)
		return false
	}
	if entry.hash != want {
		return false
	}
	delete(oneTimeStore, key)
	return true
}
