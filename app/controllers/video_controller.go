package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/trendhack/dashboard/internal/pkg/agents"
	"github.com/trendhack/dashboard/internal/pkg/listing"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

// VideoController serves the video page and the user-triggered agents.
type VideoController struct {
	lists  *listing.Service
	agents *agents.Service
}

func NewVideoController(lists *listing.Service, agentService *agents.Service) *VideoController {
	return &VideoController{lists: lists, agents: agentService}
}

func (vc *VideoController) HandleDetail(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid video id")
	}

	detail, err := vc.lists.Video(c.UserContext(), usercontext.GetUserID(c), id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return notFound(c, "Vídeo não encontrado.")
		}
		return internalError(c, "Videos", err)
	}
	return c.JSON(detail)
}

// HandleSimplified starts the simplified strategy of a video.
func (vc *VideoController) HandleSimplified(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid video id")
	}

	agent, err := vc.agents.RequestSimplified(c.UserContext(), usercontext.GetUserID(c), id)
	if err != nil {
		return agentError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"agent": agent})
}

type replyRequest struct {
	Prompt string `json:"prompt"`
}

// HandleReply starts the reply agent with the user's business prompt.
func (vc *VideoController) HandleReply(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid video id")
	}
	var in replyRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	agent, err := vc.agents.RequestReply(c.UserContext(), usercontext.GetUserID(c), id, in.Prompt)
	if err != nil {
		return agentError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"agent": agent})
}

// HandleHistory lists the user's latest reply prompts.
func (vc *VideoController) HandleHistory(c *fiber.Ctx) error {
	entries, err := vc.agents.History(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return internalError(c, "Agents", err)
	}
	return c.JSON(fiber.Map{"history": entries})
}

func agentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, agents.ErrNotFound):
		return notFound(c, "Vídeo não encontrado.")
	case errors.Is(err, agents.ErrInvalidTransition):
		return jsonError(c, fiber.StatusConflict, "invalid_transition", "Esta análise já foi solicitada.")
	case errors.Is(err, agents.ErrInvalidPrompt):
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_prompt", "O texto deve ter entre 1 e 2000 caracteres.")
	case errors.Is(err, agents.ErrUnknownField):
		return jsonError(c, fiber.StatusUnprocessableEntity, "unknown_field", err.Error())
	}
	return internalError(c, "Agents", err)
}
