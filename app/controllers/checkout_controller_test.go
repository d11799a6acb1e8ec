package controllers

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendhack/dashboard/internal/pkg/billing"
)

func newCheckoutApp(e *testEnv, userID uint) *fiber.App {
	app := fiber.New()
	app.Post("/api/stripe/create-checkout-session", asUser(userID), e.ctrl.Checkout.HandleCreateSession)
	return app
}

func TestCheckoutMissingFields(t *testing.T) {
	e := newEnv(t)
	app := newCheckoutApp(e, 7)

	for _, body := range []string{`{}`, `{"priceId":"price_1"}`, `{"userId":"7"}`, `{"priceId":"  ","userId":"7"}`} {
		resp, out := send(t, app, fiber.MethodPost, "/api/stripe/create-checkout-session", body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "Missing priceId or userId", out["error"], body)
	}
}

func TestCheckoutRejectsOtherUser(t *testing.T) {
	e := newEnv(t)
	app := newCheckoutApp(e, 7)

	resp, _ := send(t, app, fiber.MethodPost, "/api/stripe/create-checkout-session", `{"priceId":"price_1","userId":"8"}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Empty(t, e.checkout.got.PriceID)
}

func TestCheckoutReturnsURL(t *testing.T) {
	e := newEnv(t)
	app := newCheckoutApp(e, 7)

	resp, out := send(t, app, fiber.MethodPost, "/api/stripe/create-checkout-session", `{"priceId":"price_1","userId":"7","customerEmail":"ana@example.com"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", out["url"])
	assert.Equal(t, "price_1", e.checkout.got.PriceID)
	assert.Equal(t, "7", e.checkout.got.UserID)
	assert.Equal(t, "ana@example.com", e.checkout.got.CustomerEmail)
	assert.Contains(t, e.checkout.got.SuccessURL, "success=true")
	assert.Contains(t, e.checkout.got.CancelURL, "canceled=true")
}

func TestCheckoutReturnsToConfiguredOrigin(t *testing.T) {
	e := newEnv(t)
	app := newCheckoutApp(e, 7)

	req := httptest.NewRequest(fiber.MethodPost, "/api/stripe/create-checkout-session", strings.NewReader(`{"priceId":"price_1","userId":"7"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderOrigin, "https://evil.example")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, "https://app.example.com/dashboard/planos?success=true&session_id={CHECKOUT_SESSION_ID}", e.checkout.got.SuccessURL)
	assert.Equal(t, "https://app.example.com/dashboard/planos?canceled=true", e.checkout.got.CancelURL)
}

func TestCheckoutPassesProviderMessage(t *testing.T) {
	e := newEnv(t)
	e.checkout.err = &billing.StripeError{StatusCode: 400, Message: "No such price: 'price_x'"}
	app := newCheckoutApp(e, 7)

	resp, out := send(t, app, fiber.MethodPost, "/api/stripe/create-checkout-session", `{"priceId":"price_x","userId":"7"}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "No such price: 'price_x'", out["error"])
}

func TestCheckoutGenericProviderFailure(t *testing.T) {
	e := newEnv(t)
	e.checkout.err = errors.New("dial tcp: timeout")
	app := newCheckoutApp(e, 7)

	resp, out := send(t, app, fiber.MethodPost, "/api/stripe/create-checkout-session", `{"priceId":"price_1","userId":"7"}`)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, out["error"])
}
