package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/plantpal-service/internal/api/dto"
	"github.com/spec-kit/plantpal-service/internal/repository"
	"github.com/spec-kit/plantpal-service/internal/service"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

const maxUserPageSize = 500

// AdminHandler serves admin-only endpoints.
type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Users handles GET /api/admin/users. Optional ?q=, ?limit= and ?offset=.
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)
	if limit < 0 || offset < 0 || limit > maxUserPageSize {
		return apperrors.NewValidationError("invalid pagination", map[string]any{"limit": limit, "offset": offset})
	}

	users, err := h.admin.ListUsers(c.UserContext(), repository.UserFilter{
		SearchTerm: c.Query("q"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserListResponse(users))
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.admin.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatsResponse(stats))
}
