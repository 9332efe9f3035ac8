package appointment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-serial-booking/internal/availability"
	redisclient "github.com/hackgods/clinic-serial-booking/internal/redis"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

// memRepo mirrors the Postgres constraints that matter for allocation,
// in particular the unique (date, serial_number) index.
type memRepo struct {
	mu     sync.Mutex
	appts  map[uuid.UUID]Appointment
	order  []uuid.UUID
	events []EventLog

	// insertHook runs before every insert; a non-nil error aborts it.
	insertHook func(appt Appointment) error
	// countHook runs before every general count; a non-nil error aborts it.
	countHook func() error
}

func newMemRepo() *memRepo {
	return &memRepo{appts: make(map[uuid.UUID]Appointment)}
}

func (m *memRepo) CountGeneral(_ context.Context, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countHook != nil {
		if err := m.countHook(); err != nil {
			return 0, err
		}
	}
	n := 0
	for _, a := range m.appts {
		if a.Date.Equal(day) && a.Category == CategoryGeneral {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) Insert(_ context.Context, appt Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertHook != nil {
		if err := m.insertHook(appt); err != nil {
			return nil, err
		}
	}

	if appt.SerialNumber != nil {
		for _, a := range m.appts {
			if a.Date.Equal(appt.Date) && a.SerialNumber != nil && *a.SerialNumber == *appt.SerialNumber {
				return nil, ErrSerialTaken
			}
		}
	}

	now := time.Now()
	appt.CreatedAt, appt.UpdatedAt = now, now
	m.appts[appt.ID] = appt
	m.order = append(m.order, appt.ID)
	return &appt, nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memRepo) ListByDate(_ context.Context, day time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, id := range m.order {
		if a := m.appts[id]; a.Date.Equal(day) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		si, sj := out[i].SerialNumber, out[j].SerialNumber
		switch {
		case si == nil:
			return false
		case sj == nil:
			return true
		}
		return *si < *sj
	})
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	return &a, nil
}

func (m *memRepo) FindStalePending(_ context.Context, before time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, id := range m.order {
		if a := m.appts[id]; a.Status == StatusPending && a.Date.Before(before) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memRepo) serials(day time.Time) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, a := range m.appts {
		if a.Date.Equal(day) && a.SerialNumber != nil {
			out = append(out, *a.SerialNumber)
		}
	}
	sort.Ints(out)
	return out
}

// memLocker serializes callers per key, like the Redis lock with an
// unbounded wait.
type memLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	keys  []string
}

func newMemLocker() *memLocker {
	return &memLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *memLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.keys = append(l.keys, key)
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// busyLocker never grants the lock.
type busyLocker struct{ calls int }

func (b *busyLocker) WithLock(context.Context, string, func(context.Context) error) error {
	b.calls++
	return redisclient.ErrLockNotAcquired
}

// noLocker runs the callback without any mutual exclusion, leaving the
// unique index as the only guard.
type noLocker struct{}

func (noLocker) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

type stubGate struct {
	unavailable map[string]bool
	err         error
	calls       int
}

func (g *stubGate) Lookup(_ context.Context, date time.Time) (availability.Lookup, error) {
	g.calls++
	if g.err != nil {
		return availability.Lookup{}, g.err
	}
	if g.unavailable[schedule.DateKey(date)] {
		return availability.Lookup{Source: availability.SourceExplicit, Available: false}, nil
	}
	return availability.Resolve(nil), nil
}

var errStorage = errors.New("storage down")
