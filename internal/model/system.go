package model

import "time"

// RebootRequest is the optional body of POST /api/system/reboot
type RebootRequest struct {
	DelaySeconds *int   `json:"delaySeconds,omitempty" validate:"omitempty,min=0,max=3600"`
	Reason       string `json:"reason,omitempty" validate:"max=200"`
}

// RebootResponse represents the response for a scheduled reboot
type RebootResponse struct {
	RequestID   string    `json:"requestId"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Mode        string    `json:"mode"` // "queued" or "direct"
}

// Reboot dispatch modes
const (
	RebootModeQueued = "queued"
	RebootModeDirect = "direct"
)

// RebootTaskPayload is the asynq payload of a reboot task
type RebootTaskPayload struct {
	RequestID   string `json:"requestId"`
	RequestedBy string `json:"requestedBy,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// DebugInfoResponse exposes non-secret runtime settings
type DebugInfoResponse struct {
	Env           string          `json:"env"`
	WorkspaceRoot string          `json:"workspaceRoot"`
	JobStorePath  string          `json:"jobStorePath"`
	Services      map[string]bool `json:"services"`
	Time          int64           `json:"time"`
}
