package router

import (
	"github.com/a-h/templ"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/trendhack/dashboard/app/controllers"
	apiv1 "github.com/trendhack/dashboard/internal/api/v1"
	"github.com/trendhack/dashboard/views"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Options carries the settings of the API router.
type Options struct {
	PipelineSecret string
	// Contract, when set, validates pipeline requests against the OpenAPI document.
	Contract *openapi3.T
}

// InstallRouter installs HttpRouter first so the UserContext middleware runs
// before the API routes that depend on it.
func InstallRouter(app *fiber.App, ctrl *controllers.Controllers, sessions *fibersession.Store, opts Options) error {
	var contract fiber.Handler
	if opts.Contract != nil {
		h, err := apiv1.ValidateRequests(opts.Contract)
		if err != nil {
			return err
		}
		contract = h
	}
	setup(app, NewHttpRouter(ctrl, sessions), NewApiRouter(ctrl, opts.PipelineSecret, contract))
	return nil
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

// InstallFallback answers every route with the unavailable screen. Used when
// the database could not be reached at boot.
func InstallFallback(app *fiber.App) {
	page := adaptor.HTTPHandler(templ.Handler(views.DataServiceDown(), templ.WithStatus(fiber.StatusServiceUnavailable)))
	app.Use(func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderRetryAfter, "60")
		return page(c)
	})
}
