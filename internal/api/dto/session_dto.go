package dto

import "time"

// SignInRequest carries the authenticated identity assertion delivered by
// the upstream provider integration.
type SignInRequest struct {
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionLookupRequest selects a session record by explicit id.
type SessionLookupRequest struct {
	SessionID string `json:"session_id"`
}

// PermissionCheckRequest requests a direct permission check for an
// external account id.
type PermissionCheckRequest struct {
	ExternalID string `json:"external_id"`
}
