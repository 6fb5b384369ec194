package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/plantpal-service/internal/api/dto"
	"github.com/spec-kit/plantpal-service/internal/service"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// ProfileHandler lets users edit their own account.
type ProfileHandler struct {
	profile *service.ProfileService
}

func NewProfileHandler(profile *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profile: profile}
}

// Update handles PUT /api/profile.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.profile.UpdateUsername(c.UserContext(), identity.SubjectID, req.Username)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UploadPicture handles POST /api/profile/picture.
func (h *ProfileHandler) UploadPicture(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	asset, err := requireAsset(c)
	if err != nil {
		return err
	}

	user, err := h.profile.UpdatePicture(c.UserContext(), identity.SubjectID, asset)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
