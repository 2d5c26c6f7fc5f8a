package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/application/services"
	"github.com/sarychlabs/sarychdb/interfaces/http/rest/handlers"
	"github.com/sarychlabs/sarychdb/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	auth       *services.AuthService
	db         *services.DatabaseService
	lists      *services.ListService
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(
	auth *services.AuthService,
	db *services.DatabaseService,
	lists *services.ListService,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		auth:       auth,
		db:         db,
		lists:      lists,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept", "Content-Type", "X-Request-ID",
				"username", "password", "queryType", "idUpdate",
				"page", "limit", "sortBy", "sortOrder", "filters",
			},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	// User and database registration
	userHandler := handlers.NewUserHandler(rt.auth, rt.logger)
	router.Post("/users", userHandler.CreateUser)
	router.Route("/databases", func(r chi.Router) {
		r.Post("/", userHandler.CreateDatabase)
		r.Get("/", userHandler.ListDatabases)
	})

	// The sarych protocol endpoint accepts any method; the operation lives
	// inside the url parameter, not in the HTTP verb.
	sarychHandler := handlers.NewSarychHandler(rt.auth, rt.db, rt.lists, rt.logger)
	router.HandleFunc("/sarych", sarychHandler.Handle)

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
