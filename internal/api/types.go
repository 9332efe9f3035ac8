package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-serial-booking/internal/appointment"
	"github.com/hackgods/clinic-serial-booking/internal/availability"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

type CreateAppointmentRequest struct {
	PatientName   string  `json:"patient_name"`
	Age           int     `json:"age"`
	Phone         string  `json:"phone"`
	City          string  `json:"city"`
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	PreferredTime *string `json:"preferred_time,omitempty"`
	PaymentMethod string  `json:"payment_method"`
	Reason        *string `json:"reason,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type SetAvailabilityRequest struct {
	Date      string `json:"date"`
	Available *bool  `json:"available"`
}

type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	Date          string     `json:"date"`
	Category      string     `json:"category"`
	Origin        string     `json:"origin"`
	SerialNumber  *int       `json:"serial_number,omitempty"`
	ArrivalSlot   *string    `json:"arrival_slot,omitempty"`
	PreferredTime *string    `json:"preferred_time,omitempty"`
	PatientName   string     `json:"patient_name"`
	Age           int        `json:"age"`
	Phone         string     `json:"phone"`
	City          string     `json:"city"`
	PaymentMethod string     `json:"payment_method"`
	Reason        *string    `json:"reason,omitempty"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type SummaryResponse struct {
	Total    int `json:"total"`
	Online   int `json:"online"`
	Offline  int `json:"offline"`
	Priority int `json:"priority"`
	General  int `json:"general"`
}

type DayBookingsResponse struct {
	Date         string                `json:"date"`
	Appointments []AppointmentResponse `json:"appointments"`
	Summary      SummaryResponse       `json:"summary"`
}

type AvailabilityResponse struct {
	Date      string     `json:"date"`
	Available bool       `json:"available"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (r CreateAppointmentRequest) toDomain(createdBy *uuid.UUID) appointment.CreateRequest {
	return appointment.CreateRequest{
		Patient: appointment.Patient{
			Name:  r.PatientName,
			Age:   r.Age,
			Phone: r.Phone,
			City:  r.City,
		},
		Date:          r.Date,
		Category:      appointment.Category(r.Category),
		PreferredTime: r.PreferredTime,
		PaymentMethod: r.PaymentMethod,
		Reason:        r.Reason,
		CreatedBy:     createdBy,
	}
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		Date:          schedule.DateKey(a.Date),
		Category:      string(a.Category),
		Origin:        string(a.Origin),
		SerialNumber:  a.SerialNumber,
		ArrivalSlot:   a.ArrivalSlot,
		PreferredTime: a.PreferredTime,
		PatientName:   a.Patient.Name,
		Age:           a.Patient.Age,
		Phone:         a.Patient.Phone,
		City:          a.Patient.City,
		PaymentMethod: a.PaymentMethod,
		Reason:        a.Reason,
		CreatedBy:     a.CreatedBy,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toDayBookingsResponse(d *appointment.DayBookings) DayBookingsResponse {
	appts := make([]AppointmentResponse, 0, len(d.Appointments))
	for i := range d.Appointments {
		appts = append(appts, toAppointmentResponse(&d.Appointments[i]))
	}
	return DayBookingsResponse{
		Date:         schedule.DateKey(d.Date),
		Appointments: appts,
		Summary: SummaryResponse{
			Total:    d.Summary.Total,
			Online:   d.Summary.Online,
			Offline:  d.Summary.Offline,
			Priority: d.Summary.Priority,
			General:  d.Summary.General,
		},
	}
}

func toAvailabilityResponse(r availability.Record) AvailabilityResponse {
	resp := AvailabilityResponse{
		Date:      schedule.DateKey(r.Date),
		Available: r.Available,
		UpdatedBy: r.UpdatedBy,
	}
	if !r.UpdatedAt.IsZero() {
		at := r.UpdatedAt
		resp.UpdatedAt = &at
	}
	return resp
}
