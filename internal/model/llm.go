package model

// LLMModel is one entry of the model catalogue
type LLMModel struct {
	ID      string `json:"id"`
	OwnedBy string `json:"ownedBy,omitempty"`
	Created int64  `json:"created,omitempty"`
}

// LLMModelListResponse represents the response for GET /api/models
type LLMModelListResponse struct {
	Models []LLMModel `json:"models"`
	Source string     `json:"source"` // "remote" or "fallback"
}
