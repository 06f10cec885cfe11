package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgLogStore appends delivery records to the notification_log table.
// Rows are never updated or deleted.
type PgLogStore struct {
	pool *pgxpool.Pool
}

func NewPgLogStore(pool *pgxpool.Pool) *PgLogStore {
	return &PgLogStore{pool: pool}
}

func (s *PgLogStore) Append(ctx context.Context, e LogEntry) error {
	var detail *string
	if e.Detail != "" {
		detail = &e.Detail
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_log (recipient, subject, body, outcome, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`, e.Recipient, e.Subject, e.Body, string(e.Outcome), detail, nullableTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("append notification log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
