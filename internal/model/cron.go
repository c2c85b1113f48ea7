package model

// UpdateJobModelRequest is the body of PUT /api/cron/jobs/:jobId/model
type UpdateJobModelRequest struct {
	Model string `json:"model" validate:"required,max=200"`
}

// CronJob is the summary of one scheduler job
type CronJob struct {
	ID          string `json:"id"`
	Kind        string `json:"kind,omitempty"`
	Model       string `json:"model,omitempty"`
	UpdatedAtMs int64  `json:"updatedAtMs,omitempty"`
}

// CronJobListResponse represents the response for job listing
type CronJobListResponse struct {
	Jobs  []CronJob `json:"jobs"`
	Count int       `json:"count"`
}

// UpdateJobModelResponse represents the response for a model update
type UpdateJobModelResponse struct {
	Success bool    `json:"success"`
	Job     CronJob `json:"job"`
}

// CronBackupResponse represents the response for a job store backup
type CronBackupResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Size      int    `json:"size"`
	CreatedAt int64  `json:"createdAt"`
}
