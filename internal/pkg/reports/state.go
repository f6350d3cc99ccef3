package reports

import "github.com/ManuelReschke/Reakage/app/models"

// SubmissionState tracks a single report submission. The UI shows Error or
// Success once and then calls ResetSubmission.
type SubmissionState struct {
	Loading bool   `json:"loading"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ListState is the live result of the owner's report query, newest first.
type ListState struct {
	Loading bool            `json:"loading"`
	Reports []models.Report `json:"reports"`
	Error   string          `json:"error,omitempty"`
}
