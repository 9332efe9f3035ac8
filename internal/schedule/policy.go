package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Minutes since midnight for the daily booking cycle.
const (
	AvailabilityCutoff = 17 * 60
	BookingOpens       = 17 * 60
	BookingCloses      = 8*60 + 15
)

var (
	ErrWindowClosed = errors.New("window closed")
	ErrInvalidDate  = errors.New("invalid date")
)

// WindowClosedError is returned when an operation is attempted outside of
// the part of the daily cycle that allows it.
type WindowClosedError struct {
	Op      string // "booking" or "availability"
	Message string
}

func (e *WindowClosedError) Error() string {
	return e.Message
}

func (e *WindowClosedError) Is(target error) bool {
	return target == ErrWindowClosed
}

// Policy is the booking cycle shared by the availability gate and the
// allocator. Both windows derive from the same constants.
type Policy struct {
	loc *time.Location
	now func() time.Time
}

func NewPolicy(loc *time.Location) *Policy {
	if loc == nil {
		loc = time.Local
	}
	return &Policy{loc: loc, now: time.Now}
}

// WithClock returns a copy of the policy reading the current time from fn.
func (p *Policy) WithClock(fn func() time.Time) *Policy {
	cp := *p
	cp.now = fn
	return &cp
}

func (p *Policy) Location() *time.Location {
	return p.loc
}

func (p *Policy) Now() time.Time {
	return p.now().In(p.loc)
}

// Today is the normalized current calendar day.
func (p *Policy) Today() time.Time {
	return p.Normalize(p.now())
}

func (p *Policy) minuteOfDay() int {
	n := p.Now()
	return n.Hour()*60 + n.Minute()
}

// OnlineBookingOpen reports whether patients may book online right now.
// The window is open on [17:00, 08:15) wrapping midnight.
func (p *Policy) OnlineBookingOpen() bool {
	m := p.minuteOfDay()
	return !(m >= BookingCloses && m < BookingOpens)
}

func (p *Policy) CheckOnlineBooking() error {
	if p.OnlineBookingOpen() {
		return nil
	}
	return &WindowClosedError{
		Op:      "booking",
		Message: fmt.Sprintf("booking window is not open yet, opens at %s", clock(BookingOpens)),
	}
}

// AvailabilityEditable reports whether availability may still be changed
// today, which is strictly before the daily cutoff.
func (p *Policy) AvailabilityEditable() bool {
	return p.minuteOfDay() < AvailabilityCutoff
}

func (p *Policy) CheckAvailabilityEdit() error {
	if p.AvailabilityEditable() {
		return nil
	}
	return &WindowClosedError{
		Op:      "availability",
		Message: fmt.Sprintf("availability can only be changed before %s", clock(AvailabilityCutoff)),
	}
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
