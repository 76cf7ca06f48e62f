package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/clinic-backoffice/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-backoffice/internal/http/middleware"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Patients           *handlers.PatientsHandler
	Appointments       *handlers.AppointmentsHandler
	Ledger             *handlers.LedgerHandler
	Inventory          *handlers.InventoryHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Tenant API: every route below needs an X-Org-Id header.
	r.Group(func(api chi.Router) {
		api.Use(requireOrgID)

		if cfg.Patients != nil {
			api.Route("/patients", func(r chi.Router) {
				r.Get("/", cfg.Patients.List)
				r.Post("/", cfg.Patients.Register)
				r.Post("/rebuild", cfg.Patients.Rebuild)
				r.Get("/lookup", cfg.Patients.Lookup)
				r.Get("/{patientID}", cfg.Patients.Get)
			})
		}

		if cfg.Appointments != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.Appointments.ListDay)
				r.Post("/", cfg.Appointments.Book)
				r.Get("/slots", cfg.Appointments.Slots)
				r.Put("/{appointmentID}", cfg.Appointments.Edit)
				r.Delete("/{appointmentID}", cfg.Appointments.Cancel)
			})
		}

		if cfg.Ledger != nil {
			api.Route("/ledger/{table}", func(r chi.Router) {
				r.Get("/", cfg.Ledger.List)
				r.Post("/", cfg.Ledger.Add)
				r.Get("/total", cfg.Ledger.MonthTotal)
				r.Put("/{entryID}", cfg.Ledger.Update)
				r.Delete("/{entryID}", cfg.Ledger.Delete)
			})
		}

		if cfg.Inventory != nil {
			api.Route("/inventory", func(r chi.Router) {
				r.Get("/items", cfg.Inventory.ListItems)
				r.Post("/items", cfg.Inventory.AddItem)
				r.Get("/items/{itemID}/movements", cfg.Inventory.ListMovements)
				r.Post("/items/{itemID}/movements", cfg.Inventory.RecordMovement)
				r.Get("/low-stock", cfg.Inventory.LowStock)
			})
		}
	})

	return r
}
