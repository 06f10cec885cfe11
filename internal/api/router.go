package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carebook/clinic-booking/internal/booking"
	"github.com/carebook/clinic-booking/internal/directory"
	"github.com/carebook/clinic-booking/internal/labtest"
)

type RouterConfig struct {
	Booking   *booking.Service
	LabTests  *labtest.Service
	Directory *directory.Service
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Logger    zerolog.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Provider directory and per-provider views
	r.Get("/providers", searchProvidersHandler(cfg.Booking))
	r.Get("/providers/{id}/slots", listDaySlotsHandler(cfg.Booking))
	r.Get("/providers/{id}/appointments", listProviderAppointmentsHandler(cfg.Booking))
	r.Get("/providers/{id}/dashboard", dashboardHandler(cfg.Booking))

	// Appointment endpoints
	r.Post("/appointments", createAppointmentHandler(cfg.Booking))
	r.Get("/appointments", listOwnedAppointmentsHandler(cfg.Booking))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
	r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Booking))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Booking))
	r.Post("/appointments/{id}/decision", providerDecisionHandler(cfg.Booking))

	// Lab test endpoints
	r.Post("/lab-tests", createLabTestHandler(cfg.LabTests))
	r.Get("/lab-tests", listLabTestsHandler(cfg.LabTests))
	r.Post("/lab-tests/{id}/cancel", cancelLabTestHandler(cfg.LabTests))
	r.Post("/lab-tests/{id}/status", labTestStatusHandler(cfg.LabTests))

	// Search catalogs
	r.Get("/directory/locations", providerLocationsHandler(cfg.Directory))
	r.Get("/directory/diseases", diseasesHandler(cfg.Directory))
	r.Get("/directory/lab-tests", labTestTypesHandler(cfg.Directory))
	r.Get("/directory/lab-locations", labLocationsHandler(cfg.Directory))

	// Admin
	r.Post("/admin/sweep", sweepHandler(cfg.Booking))

	return r
}
