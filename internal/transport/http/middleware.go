package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/files"
	"github.com/kahvecikaan/storefront-admin/internal/session"
)

type contextKey string

const (
	ContextKeyDraft      contextKey = "draft"
	ContextKeyStagingKey contextKey = "staging_key"
	ContextKeyRequestID  contextKey = "request_id"
)

// Middleware struct holds dependencies for middleware functions
type Middleware struct {
	Logger     hclog.Logger
	Validator  *domain.Validation
	Staging    files.Storage
	Sessions   *session.Manager
	corsConfig *CORSConfig
}

// CORSConfig holds configuration for CORS middleware
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	MaxAge           int  // Cache preflight requests
	AllowCredentials bool // Allow credentials like cookies
}

func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:           86400, // 24 hours
		AllowCredentials: true,
	}
}

// NewMiddleware creates a new Middleware instance
func NewMiddleware(
	logger hclog.Logger,
	validator *domain.Validation,
	staging files.Storage,
	sessions *session.Manager,
	corsConfig *CORSConfig) *Middleware {
	if corsConfig == nil {
		corsConfig = DefaultCORSConfig()
	}
	return &Middleware{
		Logger:     logger,
		Validator:  validator,
		Staging:    staging,
		Sessions:   sessions,
		corsConfig: corsConfig,
	}
}

func (m *Middleware) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range m.corsConfig.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		if !allowed {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Methods", strings.Join(m.corsConfig.AllowedMethods, ","))
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(m.corsConfig.AllowedHeaders, ","))
		w.Header().Add("Vary", "Origin")

		if m.corsConfig.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		// Preflight requests never reach the handlers
		if r.Method == http.MethodOptions {
			if m.corsConfig.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(m.corsConfig.MaxAge))
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ContentTypeMiddleware sets the Content-Type header to application/json
func (m *Middleware) ContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs the incoming requests and responses
func (m *Middleware) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()

		m.Logger.Info("Incoming request",
			"method", r.Method,
			"url", r.URL.Path,
			"request_id", requestID,
		)

		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))

		m.Logger.Info("Completed request",
			"method", r.Method,
			"url", r.URL.Path,
			"request_id", requestID,
			"duration", time.Since(start),
		)
	})
}

// SessionMiddleware rejects requests without a valid admin session token.
// Browsers cannot set headers on a WebSocket handshake, so the token may
// also be passed as the token query parameter.
func (m *Middleware) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		if _, err := m.Sessions.Validate(token); err != nil {
			m.Logger.Debug("Rejected session token", "error", err)
			if errors.Is(err, session.ErrExpiredToken) {
				writeError(w, http.StatusUnauthorized, "Session has expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid session token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// DraftMiddleware reads the multipart product form, stages its files and
// validates the draft before adding it to the context
func (m *Middleware) DraftMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := uuid.NewString()

		draft, err := readDraft(r, m.Staging, key)
		if err != nil {
			m.removeStaging(key)
			m.Logger.Error("Error reading product form", "error", err)

			var verrs domain.ValidationErrors
			switch {
			case errors.Is(err, files.ErrFileTooLarge):
				writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			case errors.Is(err, domain.ErrTooManyCoverImages):
				writeValidationErrors(w, domain.ValidationErrors{{Field: "CoverImages", Message: err.Error()}})
			case errors.As(err, &verrs):
				writeValidationErrors(w, verrs)
			default:
				writeError(w, http.StatusBadRequest, "Invalid product form")
			}
			return
		}

		if errs := m.Validator.Validate(draft); len(errs) > 0 {
			m.removeStaging(key)
			writeValidationErrors(w, errs)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyDraft, draft)
		ctx = context.WithValue(ctx, ContextKeyStagingKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) removeStaging(key string) {
	if err := m.Staging.RemoveAll(key); err != nil {
		m.Logger.Error("Unable to remove staged files", "key", key, "error", err)
	}
}
