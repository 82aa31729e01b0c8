package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/courtweb-service/internal/api/dto"
	"github.com/spec-kit/courtweb-service/internal/auth"
	"github.com/spec-kit/courtweb-service/internal/domain"
	"github.com/spec-kit/courtweb-service/internal/service"
)

// AuthHandler exposes sign-in, refresh and sign-out endpoints.
type AuthHandler struct {
	signin *service.SignInService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(signinService *service.SignInService) *AuthHandler {
	return &AuthHandler{signin: signinService}
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.SubjectID == "" {
		return fiber.NewError(http.StatusBadRequest, "subject_id required")
	}

	assertion := domain.IdentityAssertion{
		SubjectID: req.SubjectID,
		Name:      req.Name,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	}

	outcome, err := h.signin.SignIn(c.Context(), assertion)
	if err != nil {
		return err
	}

	token, exp, err := h.signin.MaterializeSession(c.Context(), assertion, outcome)
	if err != nil {
		return err
	}

	if !outcome.Accepted {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "ACCESS_DENIED",
				"message": outcome.DenialReason,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		})
	}

	setTokenCookie(c, token, exp)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"session_id":   req.SubjectID,
			"capabilities": outcome.Capabilities,
			"auth":         dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Refresh handles POST /auth/refresh. Re-issuing the token slides the
// durable record's expiry window forward.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok || claims.AccessDenied {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	token, exp, err := h.signin.RefreshSession(c.Context(), claims.SessionID)
	if err != nil {
		return err
	}

	setTokenCookie(c, token, exp)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// SignOut handles POST /auth/signout. It always reports success, even
// when no session exists or cleanup fails.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if claims, ok := auth.ClaimsFromContext(c); ok {
		_ = h.signin.SignOut(c.Context(), claims.SessionID)
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"success": true})
}

// Unauthorized handles GET /auth/unauthorized, the route guard's redirect
// target for callers missing a required capability.
func (h *AuthHandler) Unauthorized(c *fiber.Ctx) error {
	return c.Status(http.StatusForbidden).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "ACCESS_DENIED",
			"message": "you do not have permission to access this page",
		},
	})
}

func setTokenCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
	})
}
