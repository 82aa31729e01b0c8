package domain

import "time"

// Permission identifiers granted by the external authorization service.
const (
	PermissionAccess = "courtweb.access"
	PermissionStaff  = "courtweb.staff"
)

// Capability names a single boolean gate derived from the permission set.
type Capability string

const (
	CapabilityAccess Capability = "access"
	CapabilityStaff  Capability = "staff"
)

// PermissionResult is the response shape of the external authorization
// service. It is fetched fresh at sign-in and never mutated.
type PermissionResult struct {
	SubjectID            string   `json:"userID"`
	MatchedPermissionIDs []string `json:"matchedPermIDs"`
	MatchedRoles         []string `json:"matchedRoles"`
}

// Has reports whether the result contains the given permission id.
func (p *PermissionResult) Has(permissionID string) bool {
	if p == nil {
		return false
	}
	for _, id := range p.MatchedPermissionIDs {
		if id == permissionID {
			return true
		}
	}
	return false
}

// Capabilities are the two access flags derived from a PermissionResult.
// The flags are independent: staff access does not imply general access.
type Capabilities struct {
	HasAccess      bool `json:"has_access"`
	HasStaffAccess bool `json:"has_staff_access"`
}

// CapabilitiesFrom computes capability flags by membership tests against
// the matched permission ids.
func CapabilitiesFrom(result *PermissionResult) Capabilities {
	return Capabilities{
		HasAccess:      result.Has(PermissionAccess),
		HasStaffAccess: result.Has(PermissionStaff),
	}
}

// PermissionID returns the external permission identifier behind the
// capability.
func (c Capability) PermissionID() string {
	if c == CapabilityStaff {
		return PermissionStaff
	}
	return PermissionAccess
}

// Allows reports whether the given capability flag is set.
func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case CapabilityAccess:
		return c.HasAccess
	case CapabilityStaff:
		return c.HasStaffAccess
	default:
		return false
	}
}

// SessionRecord is the durable, authoritative session state. SessionID is
// the provider-assigned user id and joins the short-lived token to this
// record. A record past ExpiresAt is logically absent.
type SessionRecord struct {
	SessionID    string            `json:"session_id"`
	ExternalID   string            `json:"external_id"`
	Name         string            `json:"name,omitempty"`
	Email        string            `json:"email,omitempty"`
	AvatarURL    string            `json:"avatar_url,omitempty"`
	Capabilities Capabilities      `json:"capabilities"`
	Permissions  *PermissionResult `json:"permissions,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
}

// Expired reports whether the record is logically absent at the given time.
func (r *SessionRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
