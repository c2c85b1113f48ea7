package model

// WebSocket message types
const (
	WSMessageTypeJobUpdated   = "job_updated"
	WSMessageTypeStoreChanged = "store_changed"
	WSMessageTypeError        = "error"
	WSMessageTypePing         = "ping"
	WSMessageTypePong         = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSJobUpdatedMessage is sent to subscribers of a job after its model changes
type WSJobUpdatedMessage struct {
	Type        string `json:"type"`
	JobID       string `json:"jobId"`
	Model       string `json:"model"`
	UpdatedAtMs int64  `json:"updatedAtMs"`
}

// WSStoreChangedMessage is sent to every subscriber when the job store file changes
type WSStoreChangedMessage struct {
	Type string `json:"type"`
	At   int64  `json:"at"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"jobId"`
	Error WSError `json:"error"`
}

// WSErrorCodeStoreUnavailable is sent when a job update could not be persisted
const WSErrorCodeStoreUnavailable = "STORE_UNAVAILABLE"

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
