package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

const uniqueViolation = "23505"

const serialConstraint = "appointments_date_serial_uniq"

const appointmentColumns = `
	id, date, category, origin, serial_number, arrival_slot, preferred_time,
	patient_name, patient_age, patient_phone, patient_city,
	payment_method, reason, created_by, status, created_at, updated_at`

type PgRepository struct {
	pool   *pgxpool.Pool
	policy *schedule.Policy
}

func NewPgRepository(pool *pgxpool.Pool, policy *schedule.Policy) *PgRepository {
	return &PgRepository{pool: pool, policy: policy}
}

// Helpers

func (r *PgRepository) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.Date,
		&a.Category,
		&a.Origin,
		&a.SerialNumber,
		&a.ArrivalSlot,
		&a.PreferredTime,
		&a.Patient.Name,
		&a.Patient.Age,
		&a.Patient.Phone,
		&a.Patient.City,
		&a.PaymentMethod,
		&a.Reason,
		&a.CreatedBy,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = r.policy.FromStorage(a.Date)
	return &a, nil
}

func (r *PgRepository) scanAll(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func isSerialConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == serialConstraint
}

// Interface methods

func (r *PgRepository) CountGeneral(ctx context.Context, day time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE date = $1 AND category = 'general'
	`, day).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgRepository) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, date, category, origin, serial_number, arrival_slot, preferred_time,
			patient_name, patient_age, patient_phone, patient_city,
			payment_method, reason, created_by, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		RETURNING `+appointmentColumns,
		appt.ID, appt.Date, appt.Category, appt.Origin, appt.SerialNumber, appt.ArrivalSlot, appt.PreferredTime,
		appt.Patient.Name, appt.Patient.Age, appt.Patient.Phone, appt.Patient.City,
		appt.PaymentMethod, appt.Reason, appt.CreatedBy, appt.Status,
	)

	created, err := r.scanAppointment(row)
	if err != nil {
		if isSerialConflict(err) {
			return nil, ErrSerialTaken
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return r.scanAppointment(row)
}

func (r *PgRepository) ListByDate(ctx context.Context, day time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1
		ORDER BY category ASC, serial_number ASC NULLS LAST, created_at ASC
	`, day)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, status)

	return r.scanAppointment(row)
}

func (r *PgRepository) FindStalePending(ctx context.Context, before time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND date < $1
	`, before)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
