package avatar

import (
	"crypto/md5"
	"fmt"
	"strings"
)

const defaultSize = 200

// URL returns the stored avatar, or the Gravatar of email when none is set.
func URL(stored, email string, size int) string {
	if stored != "" {
		return stored
	}
	return Gravatar(email, size)
}

// Gravatar builds the Gravatar address with the "mystery person" fallback.
func Gravatar(email string, size int) string {
	if size <= 0 {
		size = defaultSize
	}
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
