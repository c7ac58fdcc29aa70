package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/kahvecikaan/storefront-admin/internal/events"
	"github.com/kahvecikaan/storefront-admin/internal/files"
	"github.com/kahvecikaan/storefront-admin/internal/repository"
	"github.com/kahvecikaan/storefront-admin/internal/service"
	"github.com/kahvecikaan/storefront-admin/internal/session"
	"github.com/kahvecikaan/storefront-admin/internal/storeapi"
	httpTransport "github.com/kahvecikaan/storefront-admin/internal/transport/http"
	websocketTransport "github.com/kahvecikaan/storefront-admin/internal/transport/websocket"
	"github.com/kahvecikaan/storefront-admin/internal/upload"
	"github.com/nicholasjackson/env"
)

// Environment variables
var (
	bindAddress = env.String("BIND_ADDRESS", false,
		":9090", "Bind address for the server")
	logLevel = env.String("LOG_LEVEL", false,
		"debug", "Log output level for the server [debug, info, trace]")

	storeAPIURL = env.String("STORE_API_URL", true,
		"", "Base URL of the store REST API")
	storeAPIToken = env.String("STORE_API_TOKEN", false,
		"", "Bearer token sent to the store API")

	stepTimeout = env.String("UPLOAD_STEP_TIMEOUT", false,
		"11m", "Timeout for a single upload attempt")
	uploadRetries = env.Int("UPLOAD_RETRIES", false,
		2, "Extra attempts for uploads that fail at the network level")
	retryBackoff = env.String("UPLOAD_RETRY_BACKOFF", false,
		"2s", "Delay multiplied by the attempt number between upload retries")

	stagingPath = env.String("STAGING_PATH", false,
		"./staging", "Directory holding uploaded files until they are sent to the store")
	maxUploadBytes = env.Int("MAX_UPLOAD_BYTES", false,
		512<<20, "Maximum size of a single uploaded file in bytes")

	sessionSecret = env.String("SESSION_SECRET", true,
		"", "Secret used to sign admin session tokens")
	sessionTTL = env.String("SESSION_TTL", false,
		"12h", "Lifetime of an admin session")

	submissionHistory = env.Int("SUBMISSION_HISTORY", false,
		500, "Finished submissions kept in memory, 0 keeps all of them")

	corsOrigins = env.String("CORS_ORIGINS", false,
		"http://localhost:5173", "Comma separated list of allowed CORS origins")
	catalogRefresh = env.String("CATALOG_REFRESH", false,
		"5m", "Interval for refreshing cached categories and developers, 0 disables it")
)

func main() {
	// Initialize the logger
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "storefront-admin",
		Level: hclog.LevelFromString(*logLevel),
	})

	if err := env.Parse(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(hclog.LevelFromString(*logLevel))

	// Create a standard logger for the HTTP server
	standardLogger := logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})

	// Store API client
	apiConfig := storeapi.DefaultConfig(*storeAPIURL)
	apiConfig.Token = *storeAPIToken
	apiConfig.StepTimeout = mustDuration(logger, "UPLOAD_STEP_TIMEOUT", *stepTimeout)
	apiConfig.RetryBackoff = mustDuration(logger, "UPLOAD_RETRY_BACKOFF", *retryBackoff)
	apiConfig.MaxRetries = *uploadRetries
	apiClient := storeapi.NewClient(apiConfig, logger.Named("store-api"))

	// Staging area for uploaded files
	staging, err := files.NewLocal(*stagingPath, int64(*maxUploadBytes))
	if err != nil {
		logger.Error("Unable to create staging storage", "path", *stagingPath, "error", err)
		os.Exit(1)
	}

	// Initialize the event bus, shared between services and the websocket handler
	eventBus := events.NewEventBus[any]()

	cs := service.NewCatalogService(
		logger.Named("catalog-service"),
		apiClient,
		mustDuration(logger, "CATALOG_REFRESH", *catalogRefresh),
	)

	ss := service.NewSubmissionService(
		repository.NewMemorySubmissionRepository(*submissionHistory),
		cs,
		upload.New(apiClient, logger.Named("upload")),
		staging,
		eventBus,
		logger.Named("submission-service"),
	)

	sessions := session.NewManager(*sessionSecret, mustDuration(logger, "SESSION_TTL", *sessionTTL))

	corsConfig := httpTransport.DefaultCORSConfig()
	corsConfig.AllowedOrigins = splitList(*corsOrigins)

	mw := httpTransport.NewMiddleware(
		logger.Named("middleware"),
		domain.NewValidation(),
		staging,
		sessions,
		corsConfig,
	)

	// Initialize HTTP handlers
	ph := httpTransport.NewProductHandler(ss, cs, logger.Named("product-handler"))
	ih := httpTransport.NewImageHandler(logger.Named("image-handler"), int64(*maxUploadBytes))
	ah := httpTransport.NewAuthHandler(apiClient, sessions, logger.Named("auth-handler"))
	wh := websocketTransport.NewHandler(logger.Named("websocket-handler"), eventBus)

	router := httpTransport.NewRouter(ph, ih, ah, mw, wh)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(standardLogger),
		handlers.PrintRecoveryStack(true),
	)

	// Large product files are streamed in the request body, so read and
	// write timeouts are sized for uploads rather than JSON calls.
	server := &http.Server{
		Addr:              *bindAddress,
		Handler:           recovery(router),
		ErrorLog:          standardLogger,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Minute,
		WriteTimeout:      15 * time.Minute,
	}

	// Start the server in a new goroutine
	go func() {
		logger.Info("Starting server", "bind_address", *bindAddress, "store_api", *storeAPIURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Error starting server", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", "error", err)
	}

	// Cancels running submissions and waits for them to record their results
	if err := ss.Close(); err != nil {
		logger.Error("Error closing submission service", "error", err)
	}

	if err := cs.Close(); err != nil {
		logger.Error("Error closing catalog service", "error", err)
	}

	eventBus.Close()
}

func mustDuration(logger hclog.Logger, name, value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Error("Invalid duration", "variable", name, "value", value, "error", err)
		os.Exit(1)
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
