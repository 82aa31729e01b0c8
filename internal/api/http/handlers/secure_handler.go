package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/courtweb-service/internal/auth"
	"github.com/spec-kit/courtweb-service/internal/domain"
	"github.com/spec-kit/courtweb-service/internal/service"
	apperrors "github.com/spec-kit/courtweb-service/pkg/util/errorutil"
)

// SecureExampleHandler demonstrates the required pattern for privileged
// endpoints: verification against the durable record before acting,
// never against the token's cached flags.
type SecureExampleHandler struct {
	verifier *service.SessionVerifier
}

// NewSecureExampleHandler constructs handler.
func NewSecureExampleHandler(verifier *service.SessionVerifier) *SecureExampleHandler {
	return &SecureExampleHandler{verifier: verifier}
}

// Get handles GET /api/secure-example, requiring verified general access.
func (h *SecureExampleHandler) Get(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(http.StatusText(http.StatusUnauthorized))
	}

	record, err := h.verifier.VerifyPermission(c.Context(), claims.SessionID, domain.CapabilityAccess)
	if err != nil {
		return err
	}

	if _, err := h.verifier.VerifyRouteAccess(c.Context(), claims.SessionID, domain.RouteOfficer); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "access granted",
		"user": fiber.Map{
			"id":          record.SessionID,
			"external_id": record.ExternalID,
			"name":        record.Name,
			"permissions": record.Capabilities,
		},
		"verified": true,
	})
}

// Post handles POST /api/secure-example, requiring verified staff access.
func (h *SecureExampleHandler) Post(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(http.StatusText(http.StatusUnauthorized))
	}

	record, err := h.verifier.VerifyPermission(c.Context(), claims.SessionID, domain.CapabilityStaff)
	if err != nil {
		return err
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	return c.JSON(fiber.Map{
		"message":  "court staff operation completed",
		"user":     record.Name,
		"data":     body,
		"verified": true,
	})
}
