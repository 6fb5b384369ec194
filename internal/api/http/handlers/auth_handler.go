package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/plantpal-service/internal/api/dto"
	"github.com/spec-kit/plantpal-service/internal/service"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// AuthHandler exposes register, login and the current user.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{Token: result.Token, ExpiresAt: result.ExpiresAt})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{Token: result.Token, ExpiresAt: result.ExpiresAt})
}

// Me handles GET /api/auth.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.auth.CurrentUser(c.UserContext(), identity.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
