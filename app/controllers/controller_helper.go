package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/trendhack/dashboard/internal/pkg/credits"
	"github.com/trendhack/dashboard/internal/pkg/submission"
)

var validate = validator.New()

// jsonError writes the API error envelope.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// internalError logs err under component and answers with a generic 500.
func internalError(c *fiber.Ctx, component string, err error) error {
	log.Errorf("[%s] %s %s: %v", component, c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal_server_error",
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusNotFound, "not_found", message)
}

func badRequest(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusBadRequest, "bad_request", message)
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// rejectSubmission answers a failed submission. Validation failures and a
// short balance are 422s; anything else is an internal error.
func rejectSubmission(c *fiber.Ctx, err error) error {
	var insufficient *credits.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":     "insufficient_credits",
			"message":   "Gemas insuficientes para esta solicitação.",
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
	}
	var invalid *submission.ValidationError
	if errors.As(err, &invalid) {
		return jsonError(c, fiber.StatusUnprocessableEntity, invalid.Code, invalid.Message)
	}
	return internalError(c, "Requests", err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

// ClientIP prefers the proxy headers set by Cloudflare and the load balancer.
func ClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return c.IP()
}
