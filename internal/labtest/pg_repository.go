package labtest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const requestColumns = `id, test_type, location, booked_by, owner_email, status, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request

	err := row.Scan(
		&r.ID,
		&r.TestType,
		&r.Location,
		&r.BookedBy,
		&r.OwnerEmail,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	return &r, nil
}

func (p *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM lab_tests
		WHERE id = $1
	`, id)
	return scanRequest(row)
}

func (p *PgRepository) Create(ctx context.Context, r *Request) error {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO lab_tests (id, test_type, location, booked_by, owner_email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+requestColumns+`
	`, r.ID, r.TestType, r.Location, r.BookedBy, r.OwnerEmail, r.Status)

	created, err := scanRequest(row)
	if err != nil {
		return err
	}
	*r = *created
	return nil
}

func (p *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Request, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE lab_tests
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+requestColumns+`
	`, id, to, from)

	return scanRequest(row)
}

func (p *PgRepository) ListByOwner(ctx context.Context, owner uuid.UUID, status Status) ([]Request, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM lab_tests
		WHERE booked_by = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`, owner, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}
