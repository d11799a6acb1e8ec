package router

import (
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/trendhack/dashboard/app/controllers"
	"github.com/trendhack/dashboard/internal/pkg/middleware"
)

type HttpRouter struct {
	ctrl     *controllers.Controllers
	sessions *fibersession.Store
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContext(h.sessions))

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter(ctrl *controllers.Controllers, sessions *fibersession.Store) *HttpRouter {
	return &HttpRouter{ctrl: ctrl, sessions: sessions}
}
