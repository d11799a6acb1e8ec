package apiv1

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// ValidateRequests rejects requests whose parameters or body do not match
// doc. Authentication is left to the route's own middleware. Paths missing
// from doc pass through unchecked.
func ValidateRequests(doc *openapi3.T) (fiber.Handler, error) {
	// match on paths only; the servers block holds the public prefix
	routed := *doc
	routed.Servers = nil

	router, err := legacy.NewRouter(&routed)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         false,
	}

	return func(c *fiber.Ctx) error {
		req, err := adaptor.ConvertRequest(c, false)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "invalid_request",
				"message": err.Error(),
			})
		}
		req.URL.Path = strings.TrimPrefix(req.URL.Path, BasePath)

		route, pathParams, err := router.FindRoute(req)
		if err != nil {
			var routeErr *routers.RouteError
			if errors.As(err, &routeErr) {
				return c.Next()
			}
			return err
		}

		err = openapi3filter.ValidateRequest(c.UserContext(), &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
			Options:    options,
		})
		if err != nil {
			log.Debugf("[APIContract] %s %s rejected: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"code":    "invalid_request",
				"message": err.Error(),
			})
		}
		return c.Next()
	}, nil
}
