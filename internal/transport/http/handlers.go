package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/service"
	"github.com/kahvecikaan/storefront-admin/internal/session"
	"github.com/kahvecikaan/storefront-admin/internal/storeapi"
)

type ProductHandler struct {
	submissions service.SubmissionService
	catalog     service.CatalogService
	logger      hclog.Logger
}

func NewProductHandler(ss service.SubmissionService, cs service.CatalogService, log hclog.Logger) *ProductHandler {
	return &ProductHandler{
		submissions: ss,
		catalog:     cs,
		logger:      log,
	}
}

// SubmitProduct handles POST /products/submissions
//
// swagger:route POST /products/submissions products submitProduct
//
// Creates a product and uploads its cover images, video and files in the
// background. Poll the returned submission for per-step results.
//
// Consumes:
// - multipart/form-data
//
// Responses:
//
//	202: submissionAcceptedResponse
//	401: errorResponse
//	413: errorResponse
//	422: validationErrorResponse
//	502: errorResponse
func (h *ProductHandler) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	draft, ok := r.Context().Value(ContextKeyDraft).(*domain.ProductDraft)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product data")
		return
	}
	key, _ := r.Context().Value(ContextKeyStagingKey).(string)

	sub, err := h.submissions.Submit(r.Context(), draft, key)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownCategory):
			writeValidationErrors(w, domain.ValidationErrors{{Field: "CategoryID", Message: err.Error()}})
		case errors.Is(err, domain.ErrNoProductFiles):
			writeValidationErrors(w, domain.ValidationErrors{{Field: "ProductFiles", Message: err.Error()}})
		case errors.Is(err, domain.ErrTooManyCoverImages):
			writeValidationErrors(w, domain.ValidationErrors{{Field: "CoverImages", Message: err.Error()}})
		default:
			h.logger.Error("Error submitting product", "error", err)
			writeStoreError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SubmissionAccepted{ID: sub.ID, Status: sub.Status})
}

// GetSubmission handles GET /products/submissions/{id}
//
// swagger:route GET /products/submissions/{id} products getSubmission
//
// Returns a submission with the outcome of every step attempted so far.
//
// Responses:
//
//	200: submissionResponse
//	401: errorResponse
//	404: errorResponse
func (h *ProductHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sub, err := h.submissions.GetSubmission(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			writeError(w, http.StatusNotFound, "Submission not found")
			return
		}
		h.logger.Error("Error getting submission", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error getting submission")
		return
	}

	json.NewEncoder(w).Encode(SubmissionView{Submission: sub, Failures: failuresOf(sub)})
}

// ListSubmissions handles GET /products/submissions
//
// swagger:route GET /products/submissions products listSubmissions
//
// Returns every submission made since the server started.
//
// Responses:
//
//	200: submissionsResponse
//	401: errorResponse
func (h *ProductHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.ListSubmissions(r.Context())
	if err != nil {
		h.logger.Error("Error listing submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "Error listing submissions")
		return
	}

	views := make([]SubmissionView, len(subs))
	for i, s := range subs {
		views[i] = SubmissionView{Submission: s, Failures: failuresOf(s)}
	}
	json.NewEncoder(w).Encode(views)
}

// ListCategories handles GET /categories
//
// swagger:route GET /categories catalog listCategories
//
// Returns the store categories a product can be listed under.
//
// Responses:
//
//	200: categoriesResponse
//	401: errorResponse
//	502: errorResponse
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Error listing categories", "error", err)
		writeStoreError(w, err)
		return
	}

	json.NewEncoder(w).Encode(categories)
}

// ListDevelopers handles GET /developers
//
// swagger:route GET /developers catalog listDevelopers
//
// Returns the revenue-share partners a product can credit.
//
// Responses:
//
//	200: developersResponse
//	401: errorResponse
//	502: errorResponse
func (h *ProductHandler) ListDevelopers(w http.ResponseWriter, r *http.Request) {
	developers, err := h.catalog.ListDevelopers(r.Context())
	if err != nil {
		h.logger.Error("Error listing developers", "error", err)
		writeStoreError(w, err)
		return
	}

	json.NewEncoder(w).Encode(developers)
}

// PasswordVerifier checks the admin password
type PasswordVerifier interface {
	VerifyAdminPassword(ctx context.Context, password string) error
}

type AuthHandler struct {
	verifier PasswordVerifier
	sessions *session.Manager
	logger   hclog.Logger
}

func NewAuthHandler(v PasswordVerifier, sm *session.Manager, log hclog.Logger) *AuthHandler {
	return &AuthHandler{verifier: v, sessions: sm, logger: log}
}

// Login handles POST /auth/login
//
// swagger:route POST /auth/login auth login
//
// Exchanges the admin password for a session token.
//
// Responses:
//
//	200: sessionResponse
//	400: errorResponse
//	401: errorResponse
//	502: errorResponse
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}

	if err := h.verifier.VerifyAdminPassword(r.Context(), req.Password); err != nil {
		if errors.Is(err, storeapi.ErrInvalidPassword) {
			h.logger.Warn("Rejected admin login")
			writeError(w, http.StatusUnauthorized, "Invalid password")
			return
		}
		h.logger.Error("Error verifying admin password", "error", err)
		writeStoreError(w, err)
		return
	}

	token, expires, err := h.sessions.Issue()
	if err != nil {
		h.logger.Error("Error issuing session", "error", err)
		writeError(w, http.StatusInternalServerError, "Unable to start session")
		return
	}

	h.logger.Info("Admin session started", "expires_at", expires)
	json.NewEncoder(w).Encode(Session{Token: token, ExpiresAt: expires.UTC().Format(time.RFC3339)})
}

func failuresOf(s *domain.Submission) []domain.StepResult {
	failures := s.Failures()
	if failures == nil {
		return []domain.StepResult{}
	}
	return failures
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Message: message})
}

func writeValidationErrors(w http.ResponseWriter, errs domain.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(ValidationError{Messages: errs.Errors()})
}

// writeStoreError maps a failed store API call to a gateway status
func writeStoreError(w http.ResponseWriter, err error) {
	var apiErr *storeapi.Error
	if !errors.As(err, &apiErr) {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if apiErr.Kind == domain.FailureTimeout {
		writeError(w, http.StatusGatewayTimeout, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, apiErr.Message)
}
