package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-serial-booking/internal/appointment"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

type BookingService interface {
	CreateAppointment(ctx context.Context, req appointment.CreateRequest, origin appointment.Origin) (*appointment.Appointment, error)
	CreateOfflineAppointment(ctx context.Context, req appointment.CreateRequest) (*appointment.Appointment, error)
	GetCurrentBookings(ctx context.Context, date time.Time) (*appointment.DayBookings, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status appointment.Status) (*appointment.Appointment, error)
}

func createAppointmentHandler(svc BookingService, origin appointment.Origin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if msg := validateCreate(req); msg != "" {
			writeError(w, http.StatusBadRequest, "invalid_request", msg)
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), req.toDomain(identityRef(r.Context())), origin)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

// walkInHandler accepts an empty body for anonymous counter tickets.
func walkInHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.CreateOfflineAppointment(r.Context(), req.toDomain(identityRef(r.Context())))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc BookingService, policy *schedule.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := policy.Today()
		if raw := r.URL.Query().Get("date"); raw != "" {
			var err error
			day, err = policy.ParseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
				return
			}
		}

		bookings, err := svc.GetCurrentBookings(r.Context(), day)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDayBookingsResponse(bookings))
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateStatusHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), id, appointment.Status(req.Status))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func validateCreate(req CreateAppointmentRequest) string {
	switch {
	case req.PatientName == "":
		return "patient_name is required"
	case req.Phone == "":
		return "phone is required"
	case req.Age <= 0:
		return "age must be positive"
	case req.Date == "":
		return "date is required"
	case req.Category == "":
		return "category is required"
	case req.PaymentMethod == "":
		return "payment_method is required"
	}
	return ""
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrWindowClosed):
		writeError(w, http.StatusForbidden, "booking_window_closed", err.Error())
	case errors.Is(err, appointment.ErrDoctorUnavailable):
		writeError(w, http.StatusConflict, "doctor_unavailable", err.Error())
	case errors.Is(err, appointment.ErrAllocationFailed):
		writeError(w, http.StatusServiceUnavailable, "allocation_failed", "could not assign a serial number, please retry shortly")
	case errors.Is(err, schedule.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, appointment.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
