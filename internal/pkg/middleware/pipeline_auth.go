package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trendhack/dashboard/internal/pkg/security"
)

const (
	HeaderPipelineTimestamp = "X-Pipeline-Timestamp"
	HeaderPipelineSignature = "X-Pipeline-Signature"
)

// PipelineSignature authenticates the extraction pipeline by an HMAC over the
// timestamp header and the raw body.
func PipelineSignature(secret string, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		if secret == "" {
			log.Error("[Pipeline] PIPELINE_SECRET is not configured; rejecting request")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "pipeline_disabled",
				"message": "Pipeline API is not configured",
			})
		}

		err := security.Verify(secret, c.Get(HeaderPipelineTimestamp), c.Get(HeaderPipelineSignature), c.Body(), now())
		if err != nil {
			log.Warnf("[Pipeline] Rejected %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": err.Error(),
			})
		}
		return c.Next()
	}
}
