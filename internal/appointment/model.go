package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryPriority Category = "priority"
)

func (c Category) Valid() bool {
	return c == CategoryGeneral || c == CategoryPriority
}

type Origin string

const (
	OriginOnline  Origin = "online"
	OriginOffline Origin = "offline"
)

func (o Origin) Valid() bool {
	return o == OriginOnline || o == OriginOffline
}

type Status string

const (
	StatusPending        Status = "pending"
	StatusArrived        Status = "arrived"
	StatusInConsultation Status = "in_consultation"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusArrived, StatusInConsultation, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Patient struct {
	Name  string
	Age   int
	Phone string
	City  string
}

type Appointment struct {
	ID            uuid.UUID
	Date          time.Time
	Category      Category
	Origin        Origin
	SerialNumber  *int
	ArrivalSlot   *string
	PreferredTime *string
	Patient       Patient
	PaymentMethod string
	Reason        *string
	CreatedBy     *uuid.UUID
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateRequest is the validated payload handed over by the HTTP layer.
// Date is the raw ISO date or datetime string.
type CreateRequest struct {
	Patient       Patient
	Date          string
	Category      Category
	PreferredTime *string
	PaymentMethod string
	Reason        *string
	CreatedBy     *uuid.UUID
}

type Summary struct {
	Total    int
	Online   int
	Offline  int
	Priority int
	General  int
}

type DayBookings struct {
	Date         time.Time
	Appointments []Appointment
	Summary      Summary
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

func summarize(appts []Appointment) Summary {
	var s Summary
	for _, a := range appts {
		s.Total++
		switch a.Origin {
		case OriginOnline:
			s.Online++
		case OriginOffline:
			s.Offline++
		}
		switch a.Category {
		case CategoryPriority:
			s.Priority++
		case CategoryGeneral:
			s.General++
		}
	}
	return s
}
