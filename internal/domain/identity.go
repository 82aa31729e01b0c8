package domain

// IdentityAssertion is the already-authenticated identity claim delivered
// by the upstream OAuth provider. Its authenticity is the provider's
// responsibility; this service never verifies signatures.
type IdentityAssertion struct {
	SubjectID string `json:"subject_id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
