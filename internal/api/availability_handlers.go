package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-serial-booking/internal/availability"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

type AvailabilityService interface {
	GetAvailability(ctx context.Context, date time.Time) (availability.Record, error)
	SetAvailability(ctx context.Context, date time.Time, available bool, actor *uuid.UUID) (*availability.Record, error)
	GetAvailabilityRange(ctx context.Context, start, end time.Time) ([]availability.Record, error)
}

func getAvailabilityHandler(svc AvailabilityService, policy *schedule.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := policy.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		rec, err := svc.GetAvailability(r.Context(), day)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(rec))
	}
}

func setAvailabilityHandler(svc AvailabilityService, policy *schedule.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Available == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "available is required")
			return
		}

		day, err := policy.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		rec, err := svc.SetAvailability(r.Context(), day, *req.Available, identityRef(r.Context()))
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(*rec))
	}
}

func availabilityRangeHandler(svc AvailabilityService, policy *schedule.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		start, err := policy.ParseDate(q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "start: "+err.Error())
			return
		}
		end, err := policy.ParseDate(q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "end: "+err.Error())
			return
		}

		records, err := svc.GetAvailabilityRange(r.Context(), start, end)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		resp := make([]AvailabilityResponse, 0, len(records))
		for _, rec := range records {
			resp = append(resp, toAvailabilityResponse(rec))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrWindowClosed):
		writeError(w, http.StatusForbidden, "availability_locked", err.Error())
	case errors.Is(err, availability.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
