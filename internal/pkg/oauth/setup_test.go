package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackURL(t *testing.T) {
	t.Setenv("PUBLIC_DOMAIN", "https://app.trendhack.com.br/")
	assert.Equal(t, "https://app.trendhack.com.br/auth/tiktok/callback", CallbackURL("tiktok"))
}

func TestCallbackURLFallsBackToLocalhost(t *testing.T) {
	t.Setenv("PUBLIC_DOMAIN", "")
	t.Setenv("APP_PORT", "8080")
	assert.Equal(t, "http://localhost:8080/auth/google/callback", CallbackURL("google"))
}
