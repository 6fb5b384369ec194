package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// HeaderAuthToken carries the identity token on every protected request.
const HeaderAuthToken = "X-Auth-Token"

const identityKey = "auth_identity"

// TokenVerifier turns a raw token into an identity.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// AuthMiddleware validates identity tokens. It never touches the database.
type AuthMiddleware struct {
	tokens TokenVerifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Get(HeaderAuthToken))
	if raw == "" {
		return apperrors.NewNoToken()
	}

	identity, err := m.tokens.Verify(raw)
	if err != nil {
		return apperrors.NewInvalidToken()
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityKey).(Identity)
	if !ok || identity.SubjectID == "" {
		return Identity{}, false
	}
	return identity, true
}
