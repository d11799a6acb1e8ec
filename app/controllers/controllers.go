package controllers

import (
	"context"
	"time"

	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/agents"
	"github.com/trendhack/dashboard/internal/pkg/billing"
	"github.com/trendhack/dashboard/internal/pkg/listing"
	"github.com/trendhack/dashboard/internal/pkg/mail"
	"github.com/trendhack/dashboard/internal/pkg/realtime"
	"github.com/trendhack/dashboard/internal/pkg/statistics"
	"github.com/trendhack/dashboard/internal/pkg/submission"
)

// Jobs is the part of the job queue the handlers enqueue into.
type Jobs interface {
	EnqueueRefreshMetrics(ctx context.Context, userID uint) error
	EnqueueMirror(ctx context.Context, kind string, rowID uint, src string) error
}

// Dependencies are the shared services the controllers are built from.
type Dependencies struct {
	Repos     *repository.Repositories
	Sessions  *fibersession.Store
	Mailer    mail.Mailer
	Captcha   CaptchaVerifier
	Publisher realtime.Publisher
	Hub       *realtime.Hub
	Jobs      Jobs
	Metrics   *statistics.Service
	Checkout  billing.CheckoutCreator
	Queue     QueueMonitor
	Sweeper   MirrorSweeper
	// BaseURL is the public origin used in mailed links and checkout returns.
	BaseURL string
	Now     func() time.Time
}

// Controllers groups every handler set of the app.
type Controllers struct {
	Auth      *AuthController
	OAuth     *OAuthController
	Catalog   *CatalogController
	Request   *RequestController
	Video     *VideoController
	Payment   *PaymentController
	Checkout  *CheckoutController
	Dashboard *DashboardController
	Realtime  *RealtimeController
	Pipeline  *PipelineController
	Admin     *AdminQueueController
}

// New wires the domain services and the controllers on top of them.
func New(d Dependencies) *Controllers {
	if d.Now == nil {
		d.Now = time.Now
	}

	submissions := submission.NewService(d.Repos, d.Publisher, d.Jobs)
	lists := listing.NewService(d.Repos)
	agentService := agents.NewService(d.Repos, d.Publisher)
	billingService := billing.NewService(d.Checkout, d.Repos.Payment, d.Publisher, d.Jobs)

	return &Controllers{
		Auth:      NewAuthController(d.Repos.User, d.Sessions, d.Mailer, d.Captcha, d.BaseURL, d.Now),
		OAuth:     NewOAuthController(d.Repos.User, d.Sessions, d.Now),
		Catalog:   NewCatalogController(d.Repos.Catalog),
		Request:   NewRequestController(submissions, lists),
		Video:     NewVideoController(lists, agentService),
		Payment:   NewPaymentController(lists),
		Checkout:  NewCheckoutController(billingService, d.BaseURL),
		Dashboard: NewDashboardController(d.Metrics),
		Realtime:  NewRealtimeController(d.Hub),
		Pipeline:  NewPipelineController(d.Repos, d.Publisher, d.Jobs, agentService, billingService),
		Admin:     NewAdminQueueController(d.Queue, d.Sweeper),
	}
}
