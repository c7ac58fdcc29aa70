// Package classification of Storefront Admin API
//
// # Documentation for Storefront Admin API
//
// Creates storefront products together with their cover images, video and
// downloadable files, and reports the outcome of every upload step.
//
// Schemes: http
// BasePath: /
// Version: 1.0.0
//
// Consumes:
// - application/json
// - multipart/form-data
//
// Produces:
// - application/json
//
// SecurityDefinitions:
// bearer:
//
//	type: apiKey
//	name: Authorization
//	in: header
//
// swagger:meta
package http

import (
	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/storeapi"
)

// NOTE: the wrapper types below are for documentation only

// Generic error message
// swagger:response errorResponse
type errorResponseWrapper struct {
	// Description of the error
	// in: body
	Body ErrorResponse
}

// Validation errors defined as an array of strings
// swagger:response validationErrorResponse
type validationErrorResponseWrapper struct {
	// Collection of the errors
	// in: body
	Body ValidationError
}

// The submission was accepted and is running
// swagger:response submissionAcceptedResponse
type submissionAcceptedResponseWrapper struct {
	// in: body
	Body SubmissionAccepted
}

// A single submission
// swagger:response submissionResponse
type submissionResponseWrapper struct {
	// in: body
	Body SubmissionView
}

// All submissions
// swagger:response submissionsResponse
type submissionsResponseWrapper struct {
	// in: body
	Body []SubmissionView
}

// Store categories
// swagger:response categoriesResponse
type categoriesResponseWrapper struct {
	// in: body
	Body []storeapi.Category
}

// Revenue-share partners
// swagger:response developersResponse
type developersResponseWrapper struct {
	// in: body
	Body []storeapi.Developer
}

// A new admin session
// swagger:response sessionResponse
type sessionResponseWrapper struct {
	// in: body
	Body Session
}

// swagger:parameters getSubmission
type submissionIDParamsWrapper struct {
	// The ID of the submission
	// in: path
	// required: true
	ID string `json:"id"`
}

// swagger:parameters login
type loginParamsWrapper struct {
	// in: body
	// required: true
	Body LoginRequest
}

// ErrorResponse defines the structure for API error responses
//
// swagger:model
type ErrorResponse struct {
	// The error message
	//
	// required: true
	Message string `json:"message"`
}

// ValidationError defines the structure for API validation error responses
//
// swagger:model
type ValidationError struct {
	// The validation errors
	//
	// required: true
	Messages []string `json:"messages"`
}

// SubmissionAccepted identifies a submission that has started
//
// swagger:model
type SubmissionAccepted struct {
	ID     string                  `json:"id"`
	Status domain.SubmissionStatus `json:"status"`
}

// SubmissionView is a submission with its failed steps listed separately
//
// swagger:model
type SubmissionView struct {
	*domain.Submission

	// The failed steps, in execution order
	Failures []domain.StepResult `json:"failures"`
}

// LoginRequest carries the admin password
//
// swagger:model
type LoginRequest struct {
	// required: true
	Password string `json:"password"`
}

// Session is a signed admin session token
//
// swagger:model
type Session struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// The cropped JPEG, or the original file when the crop was skipped
// swagger:response imageResponse
type imageResponseWrapper struct {
	// in: body
	Body []byte
}
