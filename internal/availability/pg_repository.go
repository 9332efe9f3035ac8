package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

type PgRepository struct {
	pool   *pgxpool.Pool
	policy *schedule.Policy
}

func NewPgRepository(pool *pgxpool.Pool, policy *schedule.Policy) *PgRepository {
	return &PgRepository{pool: pool, policy: policy}
}

func (r *PgRepository) scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var updatedBy *uuid.UUID

	err := row.Scan(
		&rec.Date,
		&rec.Available,
		&updatedBy,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	rec.Date = r.policy.FromStorage(rec.Date)
	rec.UpdatedBy = updatedBy
	return &rec, nil
}

func (r *PgRepository) Get(ctx context.Context, day time.Time) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT date, available, updated_by, updated_at
		FROM doctor_availability
		WHERE date = $1
	`, day)
	return r.scanRecord(row)
}

func (r *PgRepository) Upsert(ctx context.Context, rec Record) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_availability (date, available, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (date) DO UPDATE
		SET available = EXCLUDED.available,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = now()
		RETURNING date, available, updated_by, updated_at
	`, rec.Date, rec.Available, rec.UpdatedBy)
	return r.scanRecord(row)
}

func (r *PgRepository) ListRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, available, updated_by, updated_at
		FROM doctor_availability
		WHERE date BETWEEN $1 AND $2
		ORDER BY date ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
