// Package flash carries one-shot messages across the redirects of the form
// routes. Messages live in the sujit-baniya/flash cookie.
package flash

import (
	"github.com/gofiber/fiber/v2"
	sflash "github.com/sujit-baniya/flash"
)

const (
	TypeError   = "error"
	TypeSuccess = "success"
)

// Error queues an error message and returns c for the redirect.
func Error(c *fiber.Ctx, message string) *fiber.Ctx {
	return sflash.WithError(c, fiber.Map{
		"type":    TypeError,
		"message": message,
	})
}

// Success queues a success message and returns c for the redirect.
func Success(c *fiber.Ctx, message string) *fiber.Ctx {
	return sflash.WithSuccess(c, fiber.Map{
		"type":    TypeSuccess,
		"message": message,
	})
}

// Get returns the pending message, or nil when there is none.
func Get(c *fiber.Ctx) fiber.Map {
	data := sflash.Get(c)
	if len(data) == 0 {
		return nil
	}
	if _, ok := data["message"]; !ok {
		return nil
	}
	return data
}
