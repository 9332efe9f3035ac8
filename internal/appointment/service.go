package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-serial-booking/internal/availability"
	"github.com/hackgods/clinic-serial-booking/internal/config"
	redisclient "github.com/hackgods/clinic-serial-booking/internal/redis"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
)

const (
	walkInName    = "Walk-in patient"
	walkInUnknown = "N/A"
	walkInPayment = "cash"
)

var (
	ErrDoctorUnavailable = errors.New("doctor is not available on this date, please choose another date")
	ErrAllocationFailed  = errors.New("could not allocate a serial number, please retry")
	ErrInvalidStatus     = errors.New("invalid appointment status")
	ErrInvalidRequest    = errors.New("invalid appointment request")
)

// AvailabilityChecker is the part of the availability gate the allocator needs.
type AvailabilityChecker interface {
	Lookup(ctx context.Context, date time.Time) (availability.Lookup, error)
}

type Service struct {
	repo        Repository
	gate        AvailabilityChecker
	locker      redisclient.Locker
	policy      *schedule.Policy
	transitions TransitionPolicy
	maxAttempts int
	backoff     time.Duration
}

func NewService(repo Repository, gate AvailabilityChecker, locker redisclient.Locker, policy *schedule.Policy, cfg config.Config) *Service {
	attempts := cfg.AllocationAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		repo:        repo,
		gate:        gate,
		locker:      locker,
		policy:      policy,
		transitions: AnyTransition{},
		maxAttempts: attempts,
		backoff:     cfg.AllocationBackoff,
	}
}

// WithTransitionPolicy replaces the status transition rules.
func (s *Service) WithTransitionPolicy(p TransitionPolicy) *Service {
	s.transitions = p
	return s
}

// CreateAppointment admits a booking and, for general appointments, assigns
// the next serial number of the day. Online bookings must fall inside the
// booking window; both origins respect the availability gate.
func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest, origin Origin) (*Appointment, error) {
	if !origin.Valid() {
		return nil, fmt.Errorf("%w: unknown origin %q", ErrInvalidRequest, origin)
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, req.Category)
	}

	day, err := s.policy.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	if origin == OriginOnline {
		if err := s.policy.CheckOnlineBooking(); err != nil {
			return nil, err
		}
	}

	l, err := s.gate.Lookup(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !l.Available {
		return nil, ErrDoctorUnavailable
	}

	appt := newAppointment(req, day, origin)

	var created *Appointment
	if appt.Category == CategoryGeneral {
		appt.PreferredTime = nil
		created, err = s.allocate(ctx, appt)
	} else {
		created, err = s.repo.Insert(ctx, appt)
	}
	if err != nil {
		return nil, err
	}

	s.logCreated(ctx, created)
	return created, nil
}

// CreateOfflineAppointment issues a counter ticket. It is always a general
// offline booking and skips both the booking window and the availability
// gate. Missing patient details are filled with placeholders, and a missing
// date means today.
func (s *Service) CreateOfflineAppointment(ctx context.Context, req CreateRequest) (*Appointment, error) {
	day := s.policy.Today()
	if strings.TrimSpace(req.Date) != "" {
		var err error
		day, err = s.policy.ParseDate(req.Date)
		if err != nil {
			return nil, err
		}
	}

	req.Category = CategoryGeneral
	req.PreferredTime = nil
	fillWalkIn(&req)

	created, err := s.allocate(ctx, newAppointment(req, day, OriginOffline))
	if err != nil {
		return nil, err
	}

	s.logCreated(ctx, created)
	return created, nil
}

func newAppointment(req CreateRequest, day time.Time, origin Origin) Appointment {
	return Appointment{
		ID:            uuid.New(),
		Date:          day,
		Category:      req.Category,
		Origin:        origin,
		PreferredTime: req.PreferredTime,
		Patient:       req.Patient,
		PaymentMethod: req.PaymentMethod,
		Reason:        req.Reason,
		CreatedBy:     req.CreatedBy,
		Status:        StatusPending,
	}
}

func fillWalkIn(req *CreateRequest) {
	if strings.TrimSpace(req.Patient.Name) == "" {
		req.Patient.Name = walkInName
	}
	if strings.TrimSpace(req.Patient.Phone) == "" {
		req.Patient.Phone = walkInUnknown
	}
	if strings.TrimSpace(req.Patient.City) == "" {
		req.Patient.City = walkInUnknown
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		req.PaymentMethod = walkInPayment
	}
}

// allocate runs count+insert for a general appointment under the per-day
// lock. The unique (date, serial_number) index backs the lock if it expires
// mid-flight. Contention and storage failures are retried with a linear
// backoff and end in ErrAllocationFailed once attempts run out.
func (s *Service) allocate(ctx context.Context, appt Appointment) (*Appointment, error) {
	key := fmt.Sprintf("booking:%s:%s", schedule.DateKey(appt.Date), appt.Category)

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var created *Appointment

		err := s.locker.WithLock(ctx, key, func(lockCtx context.Context) error {
			n, err := s.repo.CountGeneral(lockCtx, appt.Date)
			if err != nil {
				return fmt.Errorf("count general appointments: %w", err)
			}

			serial := n + 1
			slot := schedule.ArrivalSlot(serial)
			candidate := appt
			candidate.SerialNumber = &serial
			candidate.ArrivalSlot = &slot

			created, err = s.repo.Insert(lockCtx, candidate)
			return err
		})
		if err == nil {
			return created, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, ErrSerialTaken) && !errors.Is(err, redisclient.ErrLockNotAcquired) {
			log.Printf("serial allocation attempt failed date=%s attempt=%d/%d: %v",
				schedule.DateKey(appt.Date), attempt, s.maxAttempts, err)
		}

		lastErr = err
		if attempt < s.maxAttempts {
			if err := sleepCtx(ctx, s.backoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: date=%s attempts=%d: %v",
		ErrAllocationFailed, schedule.DateKey(appt.Date), s.maxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetCurrentBookings lists a day's appointments ordered by category and
// serial number, together with origin/category counts.
func (s *Service) GetCurrentBookings(ctx context.Context, date time.Time) (*DayBookings, error) {
	day := s.policy.Normalize(date)

	appts, err := s.repo.ListByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list appointments by date: %w", err)
	}

	return &DayBookings{
		Date:         day,
		Appointments: appts,
		Summary:      summarize(appts),
	}, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// UpdateStatus overwrites the visit status. Which transitions are legal is
// up to the configured TransitionPolicy.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := s.transitions.Allow(current.Status, status); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentStatusChanged, map[string]any{
		"from": current.Status,
		"to":   updated.Status,
	})

	return updated, nil
}

// SweepStalePending cancels pending appointments dated before today.
// It is intended to be called by the sweeper periodically.
func (s *Service) SweepStalePending(ctx context.Context) (int, error) {
	today := s.policy.Today()
	stale, err := s.repo.FindStalePending(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("find stale pending appointments: %w", err)
	}

	swept := 0
	for _, appt := range stale {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, StatusCancelled)
		if err != nil {
			log.Printf("failed to cancel stale appointment %s: %v", appt.ID, err)
			continue
		}
		swept++
		s.logEvent(ctx, appt.ID, EventAppointmentStatusChanged, map[string]any{
			"from":   StatusPending,
			"to":     StatusCancelled,
			"reason": "stale_sweep",
		})
	}

	return swept, nil
}

func (s *Service) logCreated(ctx context.Context, appt *Appointment) {
	payload := map[string]any{
		"date":     schedule.DateKey(appt.Date),
		"category": appt.Category,
		"origin":   appt.Origin,
	}
	if appt.SerialNumber != nil {
		payload["serial_number"] = *appt.SerialNumber
		payload["arrival_slot"] = *appt.ArrivalSlot
	}
	s.logEvent(ctx, appt.ID, EventAppointmentCreated, payload)
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
