package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// GravatarURL returns the Gravatar image URL for an email address. The
// address is trimmed and lowercased before hashing per the Gravatar spec.
// Users without an email get a deterministic fallback seeded by username.
func GravatarURL(email, fallbackSeed string, size int) string {
	seed := strings.ToLower(strings.TrimSpace(email))
	if seed == "" {
		seed = strings.ToLower(strings.TrimSpace(fallbackSeed))
	}
	sum := md5.Sum([]byte(seed))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&r=pg&d=mm", hex.EncodeToString(sum[:]), size)
}
