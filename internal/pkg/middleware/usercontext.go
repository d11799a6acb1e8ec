package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/trendhack/dashboard/internal/pkg/session"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

// UserContext sets up the user context for every request from the app session.
func UserContext(store *fibersession.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Goth keeps its own session on /auth/:provider; reading ours there
		// would collide with its per-request locals.
		if strings.HasPrefix(c.Path(), "/auth/") && !isOwnAuthRoute(c.Path()) {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		id, ok := session.Lookup(store, c)
		if !ok {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     id.UserID,
			Username:   id.Name,
			Email:      id.Email,
			Avatar:     id.Avatar,
			IsLoggedIn: true,
			IsAdmin:    id.IsAdmin,
		})
		return c.Next()
	}
}

func isOwnAuthRoute(path string) bool {
	return path == "/auth/callback" || path == "/auth/logout"
}
