package http

import (
	_ "embed"
	"net/http"

	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/mux"
	websocketTransport "github.com/kahvecikaan/storefront-admin/internal/transport/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed swagger.yaml
var swaggerSpec []byte

func NewRouter(
	ph *ProductHandler,
	ih *ImageHandler,
	ah *AuthHandler,
	mw *Middleware,
	wsh *websocketTransport.Handler,
) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(mw.LoggingMiddleware)
	router.Use(mw.CORSMiddleware)

	// Public routes
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/swagger.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(swaggerSpec)
	}).Methods("GET")

	swaggerOpts := middleware.RedocOpts{SpecURL: "/swagger.yaml"}
	router.Handle("/docs", middleware.Redoc(swaggerOpts, nil)).Methods("GET")

	api := router.PathPrefix("/").Subrouter()
	api.Use(mw.ContentTypeMiddleware)
	api.HandleFunc("/auth/login", ah.Login).Methods("POST")

	// Routes requiring an admin session
	authed := api.PathPrefix("/").Subrouter()
	authed.Use(mw.SessionMiddleware)
	authed.HandleFunc("/categories", ph.ListCategories).Methods("GET")
	authed.HandleFunc("/developers", ph.ListDevelopers).Methods("GET")
	authed.HandleFunc("/images/crop", ih.Crop).Methods("POST")
	authed.HandleFunc("/ws", wsh.HandleWebSocket).Methods("GET")

	getRouter := authed.Methods("GET").Subrouter()
	getRouter.HandleFunc("/products/submissions", ph.ListSubmissions)
	getRouter.HandleFunc("/products/submissions/{id}", ph.GetSubmission)
	getRouter.Use(mw.GzipMiddleware)

	postRouter := authed.Methods("POST").Subrouter()
	postRouter.HandleFunc("/products/submissions", ph.SubmitProduct)
	postRouter.Use(mw.DraftMiddleware)

	return router
}
