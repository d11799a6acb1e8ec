package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/trendhack/dashboard/internal/pkg/listing"
	"github.com/trendhack/dashboard/internal/pkg/pagination"
	"github.com/trendhack/dashboard/internal/pkg/submission"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

// RequestController covers the extraction request form, its lists and the
// profile search used by the form.
type RequestController struct {
	submissions *submission.Service
	lists       *listing.Service
}

func NewRequestController(submissions *submission.Service, lists *listing.Service) *RequestController {
	return &RequestController{submissions: submissions, lists: lists}
}

// HandleSubmit charges the user and stores a new extraction request.
func (rc *RequestController) HandleSubmit(c *fiber.Ctx) error {
	var in submission.Input
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validate.Struct(in); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_input", validationMessage(err))
	}

	req, err := rc.submissions.Submit(c.UserContext(), usercontext.GetUserID(c), in)
	if err != nil {
		return rejectSubmission(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": req})
}

func (rc *RequestController) HandleList(c *fiber.Ctx) error {
	page, err := rc.lists.Requests(c.UserContext(), usercontext.GetUserID(c), pagination.Normalize(c.Query("page")))
	if err != nil {
		return internalError(c, "Requests", err)
	}
	return c.JSON(page)
}

func (rc *RequestController) HandleDetail(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid request id")
	}

	detail, err := rc.lists.Request(c.UserContext(), usercontext.GetUserID(c), id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return notFound(c, "Solicitação não encontrada.")
		}
		return internalError(c, "Requests", err)
	}
	return c.JSON(detail)
}

// HandleVideos pages through the videos of one request.
func (rc *RequestController) HandleVideos(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid request id")
	}

	page, err := rc.lists.Videos(c.UserContext(), usercontext.GetUserID(c), id, pagination.Normalize(c.Query("page")))
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return notFound(c, "Solicitação não encontrada.")
		}
		return internalError(c, "Requests", err)
	}
	return c.JSON(page)
}

type profileSearchRequest struct {
	PlatformID uint   `json:"platform_id" validate:"required"`
	Username   string `json:"username"`
}

// HandleProfileSearch registers a profile by username and returns its row.
func (rc *RequestController) HandleProfileSearch(c *fiber.Ctx) error {
	var in profileSearchRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validate.Struct(in); err != nil {
		return badRequest(c, validationMessage(err))
	}

	profile, err := rc.submissions.SearchProfile(c.UserContext(), in.PlatformID, in.Username)
	if err != nil {
		if errors.Is(err, submission.ErrEmptyUsername) {
			return jsonError(c, fiber.StatusBadRequest, submission.ErrEmptyUsername.Code, submission.ErrEmptyUsername.Message)
		}
		return rejectSubmission(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}
