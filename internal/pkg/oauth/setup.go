// Package oauth registers the social login providers.
package oauth

import (
	"strings"
	"time"

	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"github.com/markbates/goth/providers/tiktok"
	goredis "github.com/redis/go-redis/v9"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/trendhack/dashboard/internal/pkg/env"
	"github.com/trendhack/dashboard/internal/pkg/session"
)

// Providers lists the provider names accepted on /auth/:provider.
var Providers = []string{"google", "facebook", "tiktok"}

// CallbackURL is where provider redirects land for name.
func CallbackURL(name string) string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base + "/auth/" + name + "/callback"
}

// Setup registers the providers with credentials present in the environment and
// keeps the OAuth state on Redis DB 2. It is safe to call multiple times.
func Setup(client *goredis.Client) {
	var providers []goth.Provider
	if key := env.GetEnv("GOOGLE_KEY", ""); key != "" {
		providers = append(providers, google.New(key, env.GetEnv("GOOGLE_SECRET", ""), CallbackURL("google"), "email", "profile"))
	}
	if key := env.GetEnv("FACEBOOK_KEY", ""); key != "" {
		providers = append(providers, facebook.New(key, env.GetEnv("FACEBOOK_SECRET", ""), CallbackURL("facebook"), "email", "public_profile"))
	}
	if key := env.GetEnv("TIKTOK_KEY", ""); key != "" {
		providers = append(providers, tiktok.New(key, env.GetEnv("TIKTOK_SECRET", ""), CallbackURL("tiktok"), tiktok.ScopeUserInfoBasic))
	}
	goth.ClearProviders()
	goth.UseProviders(providers...)

	gothfiber.SessionStore = fibersession.New(fibersession.Config{
		Storage:        redisstorage.New(session.RedisConfig(client, 2)),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     72 * time.Hour,
	})
}

// Enabled reports whether name was registered by Setup.
func Enabled(name string) bool {
	_, err := goth.GetProvider(name)
	return err == nil
}
