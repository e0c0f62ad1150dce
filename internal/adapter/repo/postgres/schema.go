package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. The score_jobs status column
// drives the claim; the partial index keeps the oldest-pending lookup cheap.
const schema = `
CREATE TABLE IF NOT EXISTS score_jobs (
	id               TEXT PRIMARY KEY,
	key              TEXT NOT NULL,
	question         TEXT NOT NULL,
	reference_answer TEXT NOT NULL DEFAULT '',
	user_answer      TEXT NOT NULL,
	status           TEXT NOT NULL,
	score            DOUBLE PRECISION,
	analysis         TEXT NOT NULL DEFAULT '',
	error            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS score_jobs_pending_idx ON score_jobs (created_at) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS score_jobs_key_idx ON score_jobs (key);

CREATE TABLE IF NOT EXISTS questions (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	content         TEXT NOT NULL,
	qtype           TEXT NOT NULL DEFAULT '',
	options         TEXT[] ,
	correct_answers TEXT[] ,
	answer          TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'pending',
	unique_hash     TEXT NOT NULL UNIQUE,
	source          TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS questions_user_idx ON questions (user_id);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	audience      TEXT NOT NULL,
	username      TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (audience, username)
);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool PgxPool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("op=schema.ensure: %w", err)
	}
	return nil
}
