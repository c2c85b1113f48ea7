package model

// SessionResponse describes the authenticated caller
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Mode          string `json:"mode"` // "jwks", "legacy" or "gateway"
}

// Auth modes
const (
	AuthModeJWKS    = "jwks"
	AuthModeLegacy  = "legacy"
	AuthModeGateway = "gateway"
)
