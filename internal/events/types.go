package events

import "github.com/kahvecikaan/storefront-admin/internal/domain"

// StepStarted is published before a submission step runs
type StepStarted struct {
	SubmissionID string `json:"submission_id"`
	Index        int    `json:"index"`
	Total        int    `json:"total"`
	Label        string `json:"step"`
	Message      string `json:"message"`
}

// StepFinished is published once a step has an outcome
type StepFinished struct {
	SubmissionID string            `json:"submission_id"`
	Index        int               `json:"index"`
	Total        int               `json:"total"`
	Result       domain.StepResult `json:"result"`
}

// SubmissionFinished is published when every step has been attempted, or
// the product could not be created
type SubmissionFinished struct {
	SubmissionID string                  `json:"submission_id"`
	Status       domain.SubmissionStatus `json:"status"`
	ProductID    int64                   `json:"product_id,omitempty"`
	Failures     []domain.StepResult     `json:"failures,omitempty"`
	Error        string                  `json:"error,omitempty"`
}
