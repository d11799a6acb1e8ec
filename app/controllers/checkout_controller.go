package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trendhack/dashboard/internal/pkg/billing"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

// CheckoutController proxies plan purchases to Stripe Checkout.
type CheckoutController struct {
	billing *billing.Service
	baseURL string
}

// NewCheckoutController builds the controller. Stripe returns the browser to
// baseURL; the request origin is only used when baseURL is empty.
func NewCheckoutController(billingService *billing.Service, baseURL string) *CheckoutController {
	return &CheckoutController{billing: billingService, baseURL: strings.TrimRight(baseURL, "/")}
}

// HandleCreateSession answers {url} with the hosted checkout page.
func (cc *CheckoutController) HandleCreateSession(c *fiber.Ctx) error {
	var in billing.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing priceId or userId"})
	}
	if strings.TrimSpace(in.PriceID) == "" || strings.TrimSpace(in.UserID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing priceId or userId"})
	}

	sessionUser := strconv.FormatUint(uint64(usercontext.GetUserID(c)), 10)
	if strings.TrimSpace(in.UserID) != sessionUser {
		log.Warnf("[Checkout] User %s tried to open a checkout for user %s", sessionUser, in.UserID)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	url, err := cc.billing.Checkout(c.UserContext(), cc.returnOrigin(c), in)
	if err != nil {
		if errors.Is(err, billing.ErrMissingCheckoutFields) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing priceId or userId"})
		}
		log.Errorf("[Checkout] Stripe checkout failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": providerMessage(err)})
	}
	return c.JSON(fiber.Map{"url": url})
}

// returnOrigin is where Stripe sends the browser back to.
func (cc *CheckoutController) returnOrigin(c *fiber.Ctx) string {
	if cc.baseURL != "" {
		if o := c.Get(fiber.HeaderOrigin); o != "" && o != cc.baseURL {
			log.Warnf("[Checkout] Ignoring origin %q, returning to %s", o, cc.baseURL)
		}
		return cc.baseURL
	}
	if o := c.Get(fiber.HeaderOrigin); o != "" {
		return o
	}
	return c.BaseURL()
}

// providerMessage unwraps the Stripe error text shown to the user.
func providerMessage(err error) string {
	var stripeErr *billing.StripeError
	if errors.As(err, &stripeErr) && stripeErr.Message != "" {
		return stripeErr.Message
	}
	return err.Error()
}
