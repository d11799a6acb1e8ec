package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trendhack/dashboard/internal/pkg/listing"
	"github.com/trendhack/dashboard/internal/pkg/pagination"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

// PaymentController lists the user's paid payments.
type PaymentController struct {
	lists *listing.Service
}

func NewPaymentController(lists *listing.Service) *PaymentController {
	return &PaymentController{lists: lists}
}

func (pc *PaymentController) HandleList(c *fiber.Ctx) error {
	page, err := pc.lists.Payments(c.UserContext(), usercontext.GetUserID(c), pagination.Normalize(c.Query("page")))
	if err != nil {
		return internalError(c, "Payments", err)
	}
	return c.JSON(page)
}
