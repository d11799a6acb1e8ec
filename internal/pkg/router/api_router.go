package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/trendhack/dashboard/app/controllers"
	"github.com/trendhack/dashboard/internal/pkg/env"
	"github.com/trendhack/dashboard/internal/pkg/middleware"
)

type ApiRouter struct {
	ctrl           *controllers.Controllers
	pipelineSecret string
	// contract checks pipeline payloads against the OpenAPI document. Nil skips the check.
	contract fiber.Handler
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:          env.GetEnvInt("API_RATE_LIMIT", 120),
		Expiration:   1 * time.Minute,
		KeyGenerator: controllers.ClientIP,
		Next: func(c *fiber.Ctx) bool {
			// the pipeline polls in bursts and is authenticated by signature
			return strings.HasPrefix(c.Path(), "/api/v1/pipeline")
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Muitas requisições. Tente novamente em instantes.",
			})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Stripe checkout proxy
	api.Post("/stripe/create-checkout-session", middleware.RequireAPISessionAuth, h.ctrl.Checkout.HandleCreateSession)

	v1 := api.Group("/v1")
	h.registerSessionRoutes(v1)
	h.registerPipelineRoutes(v1)
}

func (h ApiRouter) registerSessionRoutes(v1 fiber.Router) {
	auth := middleware.RequireAPISessionAuth
	c := h.ctrl

	v1.Get("/session", c.Auth.HandleSession)

	// public catalog
	v1.Get("/platforms", c.Catalog.HandlePlatforms)
	v1.Get("/platforms/:id/tools", c.Catalog.HandleTools)
	v1.Get("/plans", c.Catalog.HandlePlans)

	v1.Get("/dashboard/metrics", auth, c.Dashboard.HandleMetrics)
	v1.Get("/realtime", auth, c.Realtime.HandleStream)

	v1.Get("/requests", auth, c.Request.HandleList)
	v1.Post("/requests", auth, c.Request.HandleSubmit)
	v1.Get("/requests/:id", auth, c.Request.HandleDetail)
	v1.Get("/requests/:id/videos", auth, c.Request.HandleVideos)
	v1.Post("/profiles/search", auth, c.Request.HandleProfileSearch)

	v1.Get("/videos/:id", auth, c.Video.HandleDetail)
	v1.Post("/videos/:id/simplified", auth, c.Video.HandleSimplified)
	v1.Post("/videos/:id/reply", auth, c.Video.HandleReply)
	v1.Get("/prompts/history", auth, c.Video.HandleHistory)

	v1.Get("/payments", auth, c.Payment.HandleList)

	admin := middleware.RequireAPIAdmin
	v1.Get("/admin/queue", admin, c.Admin.HandleQueueStats)
	v1.Post("/admin/queue/mirror-sweep", admin, c.Admin.HandleMirrorSweep)
}

func (h ApiRouter) registerPipelineRoutes(v1 fiber.Router) {
	p := h.ctrl.Pipeline
	pipeline := v1.Group("/pipeline", middleware.PipelineSignature(h.pipelineSecret, nil))
	if h.contract != nil {
		pipeline.Use(h.contract)
	}
	pipeline.Get("/requests/pending", p.HandlePendingRequests)
	pipeline.Patch("/requests/:id/status", p.HandleRequestStatus)
	pipeline.Post("/requests/:id/videos", p.HandleRequestVideos)
	pipeline.Patch("/agents/:id", p.HandleAgent)
	pipeline.Patch("/profiles/:id", p.HandleProfile)
	pipeline.Post("/payments", p.HandlePayment)
}

func NewApiRouter(ctrl *controllers.Controllers, pipelineSecret string, contract fiber.Handler) *ApiRouter {
	return &ApiRouter{ctrl: ctrl, pipelineSecret: pipelineSecret, contract: contract}
}
