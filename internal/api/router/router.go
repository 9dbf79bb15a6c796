package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/hospital-ai-scheduler/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/hospital-ai-scheduler/internal/http/middleware"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Scheduling         *handlers.SchedulingHandler
	Doctors            *handlers.DoctorsHandler
	Waitlist           *handlers.WaitlistHandler
	System             *handlers.SystemHandler
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

	// Operational endpoints
	r.Get("/health", cfg.System.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Appointment scheduling
	r.Route("/appointments", func(appointments chi.Router) {
		appointments.Post("/schedule", cfg.Scheduling.ScheduleAppointment)
		appointments.Post("/{patientID}/cancel", cfg.Scheduling.CancelAppointment)
	})

	// Patient views
	r.Route("/patients/{patientID}", func(patients chi.Router) {
		patients.Get("/recommendations", cfg.Scheduling.GetRecommendations)
		patients.Get("/decisions", cfg.Scheduling.ListDecisions)
	})

	// Doctor schedules
	r.Route("/doctors/{doctorID}", func(doctors chi.Router) {
		doctors.Post("/schedule", cfg.Doctors.RegisterSchedule)
		doctors.Get("/availability", cfg.Doctors.GetAvailability)
	})

	// Waitlist operations
	r.Route("/waitlist", func(waitlist chi.Router) {
		waitlist.Get("/", cfg.Waitlist.ListWaitlist)
		waitlist.Post("/fill", cfg.Waitlist.ProcessFill)
		waitlist.Get("/contacts", cfg.Waitlist.GetContactSchedule)
		waitlist.Route("/{patientID}", func(r chi.Router) {
			r.Post("/contact", cfg.Waitlist.RecordContact)
			r.Put("/priority", cfg.Waitlist.UpdatePriority)
			r.Delete("/", cfg.Waitlist.RemovePatient)
		})
	})

	// System state
	r.Get("/status", cfg.System.GetStatus)
	r.Get("/config", cfg.System.GetConfig)
	r.Put("/config", cfg.System.UpdateConfig)
	r.Post("/export", cfg.System.ExportData)

	return r
}
