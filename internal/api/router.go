package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-serial-booking/internal/appointment"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

type RouterConfig struct {
	Bookings     BookingService
	Availability AvailabilityService
	Policy       *schedule.Policy
	Health       *HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(IdentityMiddleware)

	// Health endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	staff := RequireRole(RoleReceptionist, RoleDoctor, RoleAdmin)

	// Appointment endpoints
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Bookings, appointment.OriginOnline))
		r.Get("/", listAppointmentsHandler(cfg.Bookings, cfg.Policy))
		r.Get("/{id}", getAppointmentHandler(cfg.Bookings))

		r.Group(func(r chi.Router) {
			r.Use(staff)
			r.Post("/offline", createAppointmentHandler(cfg.Bookings, appointment.OriginOffline))
			r.Post("/walk-in", walkInHandler(cfg.Bookings))
			r.Patch("/{id}/status", updateStatusHandler(cfg.Bookings))
		})
	})

	// Availability endpoints
	r.Route("/availability", func(r chi.Router) {
		r.Get("/", getAvailabilityHandler(cfg.Availability, cfg.Policy))
		r.Get("/range", availabilityRangeHandler(cfg.Availability, cfg.Policy))
		r.With(RequireRole(RoleDoctor, RoleAdmin)).Put("/", setAvailabilityHandler(cfg.Availability, cfg.Policy))
	})

	return r
}
