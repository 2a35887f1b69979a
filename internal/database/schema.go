package database

import "context"

// Schema is applied at startup. CREATE IF NOT EXISTS keeps it idempotent
// across restarts.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	status          TEXT NOT NULL DEFAULT 'waiting_for_b',
	travel_mode     TEXT NOT NULL DEFAULT 'transit',
	pin_code        TEXT NOT NULL DEFAULT '',
	user_a_lat      DOUBLE PRECISION NOT NULL,
	user_a_lng      DOUBLE PRECISION NOT NULL,
	user_a_label    TEXT NOT NULL,
	user_b_lat      DOUBLE PRECISION,
	user_b_lng      DOUBLE PRECISION,
	user_b_label    TEXT,
	midpoint_lat    DOUBLE PRECISION,
	midpoint_lng    DOUBLE PRECISION,
	travel_time_a   BIGINT,
	travel_time_b   BIGINT,
	winner_venue_id TEXT,
	created_at      BIGINT NOT NULL,
	updated_at      BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS venues (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	rating     DOUBLE PRECISION,
	created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_venues_session_id ON venues(session_id);

CREATE TABLE IF NOT EXISTS votes (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	venue_id   TEXT NOT NULL REFERENCES venues(id) ON DELETE CASCADE,
	voter      TEXT NOT NULL,
	created_at BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_session_voter ON votes(session_id, voter);
`

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
