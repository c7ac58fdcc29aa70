package domain

import "errors"

// Domain-level errors
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoProductFiles     = errors.New("at least one product file is required")
	ErrTooManyCoverImages = errors.New("too many cover images")
	ErrUnknownCategory    = errors.New("category does not exist")
)
