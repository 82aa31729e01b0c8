package domain

// SignInOutcome is the tagged result of the claims pipeline, threaded
// through token issuance and session materialization instead of mutating
// an ambient claim object.
type SignInOutcome struct {
	Accepted     bool
	Capabilities Capabilities
	Permissions  *PermissionResult
	DenialReason string
}

// SignInAccepted builds an accepted outcome carrying the computed
// capability flags and the raw permission result.
func SignInAccepted(capabilities Capabilities, permissions *PermissionResult) SignInOutcome {
	return SignInOutcome{
		Accepted:     true,
		Capabilities: capabilities,
		Permissions:  permissions,
	}
}

// SignInDenied builds a denied outcome with a human-readable reason.
func SignInDenied(reason string) SignInOutcome {
	return SignInOutcome{Accepted: false, DenialReason: reason}
}
