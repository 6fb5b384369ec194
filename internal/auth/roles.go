package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/plantpal-service/internal/domain"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// RequireRole ensures the identity set by AuthMiddleware has one of the allowed roles.
// It must be mounted after AuthMiddleware.Handle.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewForbidden("authenticated identity required")
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("admin resource, access denied")
		}
		return c.Next()
	}
}

// RequireAdmin gates privileged routes.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
