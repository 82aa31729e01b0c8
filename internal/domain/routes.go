package domain

import "strings"

// Route prefixes with a dedicated capability requirement.
const (
	RouteOfficer    = "/officer"
	RouteCourtStaff = "/court-staff"
)

// RequiredCapability maps a route to the capability it is gated on.
// Routes without a dedicated gate require general access.
func RequiredCapability(route string) Capability {
	if strings.HasPrefix(route, RouteCourtStaff) {
		return CapabilityStaff
	}
	return CapabilityAccess
}
