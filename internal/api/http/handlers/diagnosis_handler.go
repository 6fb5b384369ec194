package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/plantpal-service/internal/service"
)

// DiagnosisHandler serves plant health assessments.
type DiagnosisHandler struct {
	diagnosis *service.DiagnosisService
}

func NewDiagnosisHandler(diagnosis *service.DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{diagnosis: diagnosis}
}

// Assess handles POST /api/health and relays the provider body as-is.
func (h *DiagnosisHandler) Assess(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	asset, err := requireAsset(c)
	if err != nil {
		return err
	}

	result, err := h.diagnosis.Assess(c.UserContext(), identity.SubjectID, asset)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(result)
}
