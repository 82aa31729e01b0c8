package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/courtweb-service/internal/api/dto"
	"github.com/spec-kit/courtweb-service/internal/auth"
	"github.com/spec-kit/courtweb-service/internal/domain"
	"github.com/spec-kit/courtweb-service/internal/permission"
	"github.com/spec-kit/courtweb-service/internal/service"
	apperrors "github.com/spec-kit/courtweb-service/pkg/util/errorutil"
)

// PermissionsHandler exposes real-time permission checks.
type PermissionsHandler struct {
	verifier    *service.SessionVerifier
	permissions service.PermissionFetcher
}

// NewPermissionsHandler constructs handler.
func NewPermissionsHandler(verifier *service.SessionVerifier, permissions service.PermissionFetcher) *PermissionsHandler {
	return &PermissionsHandler{verifier: verifier, permissions: permissions}
}

// Check handles GET /api/permissions/check: server-side session
// verification followed by a live fetch from the authorization service.
func (h *PermissionsHandler) Check(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no session found")
	}

	record, err := h.verifier.VerifySession(c.Context(), claims.SessionID)
	if err != nil {
		return err
	}

	result, err := h.permissions.FetchPermissions(c.Context(), record.ExternalID)
	if err != nil {
		return mapFetchError(err)
	}
	capabilities := domain.CapabilitiesFrom(result)

	return c.JSON(fiber.Map{
		"external_id":      record.ExternalID,
		"permissions":      result,
		"has_access":       capabilities.HasAccess,
		"has_staff_access": capabilities.HasStaffAccess,
		"verified_session": fiber.Map{
			"has_access":       record.Capabilities.HasAccess,
			"has_staff_access": record.Capabilities.HasStaffAccess,
			"permissions":      record.Permissions,
		},
		"server_verified": true,
	})
}

// CheckDirect handles POST /api/permissions/check for a supplied
// external account id.
func (h *PermissionsHandler) CheckDirect(c *fiber.Ctx) error {
	var req dto.PermissionCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.ExternalID == "" {
		return fiber.NewError(http.StatusBadRequest, "external_id required")
	}

	result, err := h.permissions.FetchPermissions(c.Context(), req.ExternalID)
	if err != nil {
		return mapFetchError(err)
	}
	capabilities := domain.CapabilitiesFrom(result)

	return c.JSON(fiber.Map{
		"external_id":      req.ExternalID,
		"permissions":      result,
		"has_access":       capabilities.HasAccess,
		"has_staff_access": capabilities.HasStaffAccess,
	})
}

// mapFetchError passes the upstream status through where available.
func mapFetchError(err error) error {
	var fetchErr *permission.FetchError
	if errors.As(err, &fetchErr) {
		return apperrors.NewPermissionFetchError(fetchErr.Message, fetchErr.StatusCode, err)
	}
	return apperrors.NewPermissionFetchError(err.Error(), 0, err)
}
