package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trendhack/dashboard/app/repository"
)

// CatalogController serves the public platform, tool and plan lists.
type CatalogController struct {
	catalog repository.CatalogRepository
}

func NewCatalogController(catalog repository.CatalogRepository) *CatalogController {
	return &CatalogController{catalog: catalog}
}

func (cc *CatalogController) HandlePlatforms(c *fiber.Ctx) error {
	platforms, err := cc.catalog.ListPlatforms(c.UserContext())
	if err != nil {
		return internalError(c, "Catalog", err)
	}
	return c.JSON(fiber.Map{"platforms": platforms})
}

// HandleTools lists the visible tools of one visible platform.
func (cc *CatalogController) HandleTools(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid platform id")
	}

	platform, err := cc.catalog.GetPlatform(c.UserContext(), id)
	if err != nil {
		if isNotFound(err) {
			return notFound(c, "Plataforma não encontrada.")
		}
		return internalError(c, "Catalog", err)
	}
	if !platform.Visible {
		return notFound(c, "Plataforma não encontrada.")
	}

	tools, err := cc.catalog.ListTools(c.UserContext(), id)
	if err != nil {
		return internalError(c, "Catalog", err)
	}
	return c.JSON(fiber.Map{"platform": platform, "tools": tools})
}

func (cc *CatalogController) HandlePlans(c *fiber.Ctx) error {
	plans, err := cc.catalog.ListPlans(c.UserContext())
	if err != nil {
		return internalError(c, "Catalog", err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}
