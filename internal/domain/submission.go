package domain

import "time"

// StepKind identifies what a step in the upload sequence does
type StepKind string

const (
	StepCreate      StepKind = "create"
	StepCoverImage  StepKind = "cover_image"
	StepVideo       StepKind = "video"
	StepProductFile StepKind = "product_file"
)

// FailureKind classifies why a step failed
type FailureKind string

const (
	FailureNetwork         FailureKind = "network"
	FailurePayloadTooLarge FailureKind = "payload_too_large"
	FailureServer          FailureKind = "server"
	FailureTimeout         FailureKind = "timeout"
	FailureCanceled        FailureKind = "canceled"
	FailureLocal           FailureKind = "local"
)

// StepResult is the outcome of one step of a submission
//
// swagger:model
type StepResult struct {
	// Human readable step label, e.g. "Cover image 2 (front.png)"
	Label string `json:"step"`

	Kind StepKind `json:"kind"`

	Succeeded bool `json:"succeeded"`

	// Error message shown to the user when the step failed
	ErrorMessage string `json:"message,omitempty"`

	FailureKind FailureKind `json:"failure_kind,omitempty"`

	// Reference to the stored asset for successful uploads
	URL string `json:"url,omitempty"`

	// Number of attempts made, including retries
	Attempts int `json:"attempts"`
}

// SubmissionStatus is the lifecycle state of a submission
type SubmissionStatus string

const (
	SubmissionRunning   SubmissionStatus = "running"
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionPartial   SubmissionStatus = "partial"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Submission tracks one attempt at creating a product with its uploads
//
// swagger:model
type Submission struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Status    SubmissionStatus `json:"status"`
	ProductID int64            `json:"product_id,omitempty"`

	// Current progress text while the submission is running
	Step string `json:"step,omitempty"`

	Steps []StepResult `json:"steps"`

	// Set when the product record itself could not be created
	Error string `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Failures returns the failed steps in execution order
func (s *Submission) Failures() []StepResult {
	var failed []StepResult
	for _, st := range s.Steps {
		if !st.Succeeded {
			failed = append(failed, st)
		}
	}
	return failed
}

// Clone returns a copy that shares no mutable state with s
func (s *Submission) Clone() *Submission {
	c := *s
	c.Steps = append([]StepResult(nil), s.Steps...)
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
