package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/plantpal-service/internal/api/dto"
	"github.com/spec-kit/plantpal-service/internal/service"
)

// GardenHandler serves identification and the saved garden.
type GardenHandler struct {
	garden *service.GardenService
}

func NewGardenHandler(garden *service.GardenService) *GardenHandler {
	return &GardenHandler{garden: garden}
}

// Identify handles POST /api/identify.
func (h *GardenHandler) Identify(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	asset, err := requireAsset(c)
	if err != nil {
		return err
	}

	plant, err := h.garden.IdentifyAndSave(c.UserContext(), identity.SubjectID, asset)
	if err != nil {
		return err
	}
	return c.JSON(dto.IdentifyResponse{
		Msg:   "Plant identified and saved!",
		Plant: dto.NewPlantResponse(plant),
	})
}

// List handles GET /api/garden.
func (h *GardenHandler) List(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	plants, err := h.garden.List(c.UserContext(), identity.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPlantListResponse(plants))
}

// Remove handles DELETE /api/garden/:id.
func (h *GardenHandler) Remove(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	if err := h.garden.Remove(c.UserContext(), identity.SubjectID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Msg: "Plant removed"})
}
