package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/courtweb-service/internal/api/dto"
	"github.com/spec-kit/courtweb-service/internal/auth"
	"github.com/spec-kit/courtweb-service/internal/repository"
	apperrors "github.com/spec-kit/courtweb-service/pkg/util/errorutil"
)

// SessionHandler exposes durable session record lookups.
type SessionHandler struct {
	store repository.SessionStore
}

// NewSessionHandler constructs handler.
func NewSessionHandler(store repository.SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// Get handles GET /api/session for the caller's own session.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(http.StatusText(http.StatusUnauthorized))
	}
	return h.respondWithSession(c, claims.SessionID)
}

// Lookup handles POST /api/session for an explicit session id.
func (h *SessionHandler) Lookup(c *fiber.Ctx) error {
	var req dto.SessionLookupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.SessionID == "" {
		return fiber.NewError(http.StatusBadRequest, "session_id required")
	}
	return h.respondWithSession(c, req.SessionID)
}

func (h *SessionHandler) respondWithSession(c *fiber.Ctx, sessionID string) error {
	record, err := h.store.Get(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return apperrors.NewNotFound("session", nil)
		}
		return apperrors.NewStoreUnavailable(err)
	}
	return c.JSON(fiber.Map{"session": record})
}
