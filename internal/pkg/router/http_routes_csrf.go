package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/trendhack/dashboard/internal/pkg/env"
	"github.com/trendhack/dashboard/internal/pkg/middleware"
)

const (
	csrfHeader    = "X-Csrf-Token"
	csrfFormField = "_csrf"
)

// csrfExempt lists the prefixes authenticated by something other than the
// browser session.
var csrfExempt = []string{
	"/api/v1/pipeline",
	"/api/stripe",
}

func csrfConfig() csrf.Config {
	return csrf.Config{
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		// API clients send the header, the auth forms a hidden field
		Extractor: func(c *fiber.Ctx) (string, error) {
			if token := c.Get(csrfHeader); token != "" {
				return token, nil
			}
			return csrf.CsrfFromForm(csrfFormField)(c)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "invalid_csrf_token",
				"message": err.Error(),
			})
		},
		Next: func(c *fiber.Ctx) bool {
			for _, prefix := range csrfExempt {
				if strings.HasPrefix(c.Path(), prefix) {
					return true
				}
			}
			return false
		},
	}
}

func corsConfig() cors.Config {
	origins := env.GetEnv("CORS_ALLOW_ORIGINS", "*")
	return cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, " + csrfHeader,
		AllowCredentials: origins != "*",
	}
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	app.Use(cors.New(corsConfig()), csrf.New(csrfConfig()))

	auth := h.ctrl.Auth
	app.Post("/login", auth.HandleLogin)
	app.Post("/register", auth.HandleRegister)
	app.Post("/password/forgot", auth.HandleForgotPassword)
	app.Post("/password/reset", auth.HandleResetPassword)

	// /auth/callback and /auth/logout must precede /auth/:provider
	app.Get("/auth/callback", auth.HandleCallback)
	app.Post("/auth/logout", middleware.RequireAuth, auth.HandleLogout)

	// Social OAuth
	app.Get("/auth/:provider", h.ctrl.OAuth.HandleBegin)
	app.Get("/auth/:provider/callback", h.ctrl.OAuth.HandleCallback)
}
