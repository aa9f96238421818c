package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/spidjo/billing-analyzer/internal/auth"
	"github.com/spidjo/billing-analyzer/internal/billing"
	"github.com/spidjo/billing-analyzer/internal/config"
	"github.com/spidjo/billing-analyzer/internal/dispatch"
	"github.com/spidjo/billing-analyzer/internal/storage"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, store storage.Store, authSvc *auth.Service, engine *billing.Engine, dispatcher *dispatch.Service) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(cfg, store, authSvc, engine, dispatcher),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1/billing", func(r chi.Router) {
		// Auth
		r.Post("/auth/login", s.handlers.Login)

		// Everything else requires a valid session token.
		r.Group(func(r chi.Router) {
			r.Use(s.handlers.RequireAuth)

			// Records
			r.Route("/records", func(r chi.Router) {
				r.Get("/", s.handlers.ListRecords)
				r.Post("/", s.handlers.IngestRecords)
				r.Get("/customers/{id}", s.handlers.GetCustomerHistory)
			})

			// Analytics
			r.Route("/analytics", func(r chi.Router) {
				r.Get("/revenue", s.handlers.GetRevenueByMonth)
				r.Get("/top-customers", s.handlers.GetTopCustomers)
				r.Get("/anomalies", s.handlers.GetAnomalies)
			})

			// Reports
			r.Route("/reports", func(r chi.Router) {
				r.Get("/anomalies/pdf", s.handlers.DownloadAnomalyReport)
				r.Post("/dispatch", s.handlers.DispatchReport)
			})

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(s.handlers.RequireAdmin)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", s.handlers.ListUsers)
					r.Post("/", s.handlers.CreateUser)
					r.Delete("/{id}", s.handlers.DeleteUser)
				})

				r.Post("/billing/run", s.handlers.RunMonthlyBilling)
			})
		})
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
