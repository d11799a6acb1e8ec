package avatar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLPrefersStoredAvatar(t *testing.T) {
	assert.Equal(t, "https://cdn/me.png", URL("https://cdn/me.png", "a@b.com", 64))
}

func TestGravatarNormalizesEmail(t *testing.T) {
	a := Gravatar("  User@Example.com ", 64)
	b := Gravatar("user@example.com", 64)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "https://www.gravatar.com/avatar/")
	assert.Contains(t, a, "s=64&d=mp")
}

func TestGravatarDefaultSize(t *testing.T) {
	assert.Contains(t, Gravatar("x@y.z", 0), "s=200")
}
