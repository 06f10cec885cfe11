package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The partial unique index on appointments is the database-level guard
// against double-booking: at most one non-cancelled appointment may
// exist per (provider, date, start minute).
const schema = `
CREATE TABLE IF NOT EXISTS providers (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	specialty    TEXT NOT NULL,
	location     TEXT NOT NULL,
	gender       TEXT NOT NULL DEFAULT 'unspecified',
	description  TEXT NOT NULL DEFAULT '',
	price        NUMERIC(8,2) NOT NULL DEFAULT 0,
	rating       NUMERIC(2,1) NOT NULL DEFAULT 0,
	open_minute  SMALLINT NOT NULL,
	close_minute SMALLINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id               UUID PRIMARY KEY,
	provider_id      UUID NOT NULL REFERENCES providers(id) ON DELETE CASCADE,
	patient_name     TEXT NOT NULL,
	patient_age      INT NOT NULL,
	patient_mobile   TEXT NOT NULL,
	booked_by        UUID,
	owner_email      TEXT NOT NULL DEFAULT '',
	disease          TEXT NOT NULL DEFAULT 'Not specified',
	status           TEXT NOT NULL DEFAULT 'pending',
	appointment_date DATE NOT NULL,
	start_minute     SMALLINT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS appointments_slot_unique
	ON appointments (provider_id, appointment_date, start_minute)
	WHERE status <> 'cancelled';

CREATE INDEX IF NOT EXISTS appointments_owner_idx
	ON appointments (booked_by);

CREATE INDEX IF NOT EXISTS appointments_sweep_idx
	ON appointments (appointment_date)
	WHERE status = 'confirmed';

CREATE TABLE IF NOT EXISTS lab_tests (
	id          UUID PRIMARY KEY,
	test_type   TEXT NOT NULL,
	location    TEXT NOT NULL,
	booked_by   UUID NOT NULL,
	owner_email TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS lab_tests_owner_idx
	ON lab_tests (booked_by);

CREATE TABLE IF NOT EXISTS notification_log (
	id         BIGSERIAL PRIMARY KEY,
	recipient  TEXT NOT NULL,
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	detail     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the tables and indexes if they do not exist.
// Safe to run on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
