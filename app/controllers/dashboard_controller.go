package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trendhack/dashboard/internal/pkg/statistics"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

// DashboardController serves the metric cards of the dashboard home.
type DashboardController struct {
	metrics *statistics.Service
}

func NewDashboardController(metrics *statistics.Service) *DashboardController {
	return &DashboardController{metrics: metrics}
}

func (dc *DashboardController) HandleMetrics(c *fiber.Ctx) error {
	m, err := dc.metrics.UserMetrics(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return internalError(c, "Dashboard", err)
	}
	return c.JSON(m)
}
