package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	var open, close int16

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.Location,
		&p.Gender,
		&p.Description,
		&p.Price,
		&p.Rating,
		&open,
		&close,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	p.Open = ClockMinute(open)
	p.Close = ClockMinute(close)
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var bookedBy *uuid.UUID
	var start int16

	err := row.Scan(
		&a.ID,
		&a.ProviderID,
		&a.PatientName,
		&a.PatientAge,
		&a.PatientMobile,
		&bookedBy,
		&a.OwnerEmail,
		&a.Disease,
		&a.Status,
		&a.Date,
		&start,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.BookedBy = bookedBy
	a.Start = ClockMinute(start)
	a.Date = DateOnly(a.Date)
	return &a, nil
}

const providerColumns = `id, name, specialty, location, gender, description, price, rating, open_minute, close_minute, created_at, updated_at`

const appointmentColumns = `id, provider_id, patient_name, patient_age, patient_mobile, booked_by, owner_email, disease, status, appointment_date, start_minute, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE id = $1
	`, id)
	return scanProvider(row)
}

func (r *PgRepository) SearchProviders(ctx context.Context, f ProviderFilter) ([]Provider, error) {
	query := `
		SELECT ` + providerColumns + `
		FROM providers
		WHERE ($1 = '' OR specialty ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR location ILIKE '%' || $2 || '%')
		ORDER BY rating DESC, name
	`

	specialty := f.Specialty
	if specialty == "Other" {
		specialty = ""
	}

	rows, err := r.pool.Query(ctx, query, specialty, f.Location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) DistinctLocations(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT location FROM providers ORDER BY location
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListOccupiedStarts(ctx context.Context, providerID uuid.UUID, date time.Time) ([]ClockMinute, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_minute
		FROM appointments
		WHERE provider_id = $1
		  AND appointment_date = $2
		  AND status <> 'cancelled'
		ORDER BY start_minute
	`, providerID, DateOnly(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ClockMinute
	for rows.Next() {
		var m int16
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		result = append(result, ClockMinute(m))
	}
	return result, rows.Err()
}

func (r *PgRepository) SlotTaken(ctx context.Context, providerID uuid.UUID, date time.Time, start ClockMinute, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE provider_id = $1
			  AND appointment_date = $2
			  AND start_minute = $3
			  AND status <> 'cancelled'
			  AND id <> $4
		)
	`, providerID, DateOnly(date), int16(start), exclude).Scan(&taken)
	if err != nil {
		return false, err
	}
	return taken, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, provider_id, patient_name, patient_age, patient_mobile, booked_by, owner_email, disease, status, appointment_date, start_minute, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING `+appointmentColumns+`
	`, a.ID, a.ProviderID, a.PatientName, a.PatientAge, a.PatientMobile, a.BookedBy, a.OwnerEmail, a.Disease, a.Status, DateOnly(a.Date), int16(a.Start))

	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotAlreadyTaken
		}
		return err
	}

	*a = *created
	return nil
}

func (r *PgRepository) MoveAppointment(ctx context.Context, id uuid.UUID, date time.Time, start ClockMinute) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET appointment_date = $2,
		    start_minute = $3,
		    status = 'pending',
		    updated_at = now()
		WHERE id = $1
		  AND status IN ('pending', 'confirmed')
		RETURNING `+appointmentColumns+`
	`, id, DateOnly(date), int16(start))

	a, err := scanAppointment(row)
	if err != nil && isUniqueViolation(err) {
		return nil, ErrSlotAlreadyTaken
	}
	return a, err
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) SweepCompletions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed',
		    updated_at = now()
		WHERE status = 'confirmed'
		  AND appointment_date + make_interval(mins => start_minute + 30) < $1::timestamp
	`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep completions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) ListByOwner(ctx context.Context, owner uuid.UUID, f AppointmentFilter) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE booked_by = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY appointment_date DESC, start_minute DESC
	`, owner, string(f.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, f AppointmentFilter) ([]Appointment, error) {
	var dateArg *time.Time
	if f.Date != nil {
		d := DateOnly(*f.Date)
		dateArg = &d
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
		  AND ($2::date IS NULL OR appointment_date = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY appointment_date, start_minute
	`, providerID, dateArg, string(f.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) DashboardStats(ctx context.Context, providerID uuid.UUID, year int) (*DashboardStats, error) {
	stats := &DashboardStats{
		Year:     year,
		ByStatus: make(map[Status]int),
	}

	yearRows, err := r.pool.Query(ctx, `
		SELECT DISTINCT EXTRACT(YEAR FROM appointment_date)::int AS y
		FROM appointments
		WHERE provider_id = $1
		ORDER BY y DESC
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer yearRows.Close()
	for yearRows.Next() {
		var y int
		if err := yearRows.Scan(&y); err != nil {
			return nil, err
		}
		stats.Years = append(stats.Years, y)
	}
	if err := yearRows.Err(); err != nil {
		return nil, err
	}

	statusRows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM appointments
		WHERE provider_id = $1
		  AND EXTRACT(YEAR FROM appointment_date)::int = $2
		GROUP BY status
	`, providerID, year)
	if err != nil {
		return nil, err
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var s Status
		var n int
		if err := statusRows.Scan(&s, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[s] = n
		stats.Total += n
	}
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	monthRows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(MONTH FROM appointment_date)::int, count(*)
		FROM appointments
		WHERE provider_id = $1
		  AND EXTRACT(YEAR FROM appointment_date)::int = $2
		GROUP BY 1
	`, providerID, year)
	if err != nil {
		return nil, err
	}
	defer monthRows.Close()
	for monthRows.Next() {
		var m, n int
		if err := monthRows.Scan(&m, &n); err != nil {
			return nil, err
		}
		if m >= 1 && m <= 12 {
			stats.Monthly[m-1] = n
		}
	}
	return stats, monthRows.Err()
}
