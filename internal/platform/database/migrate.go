package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate applies the schema idempotently at startup. The table set is small
// enough that a migration tool would be overhead.
func Migrate(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                  UUID PRIMARY KEY,
	owner_id            TEXT NOT NULL,
	doc_type            TEXT NOT NULL,
	title               TEXT NOT NULL,
	title_swahili       TEXT NOT NULL DEFAULT '',
	content_type        TEXT NOT NULL,
	size                BIGINT NOT NULL,
	content_hash        TEXT NOT NULL UNIQUE,
	verification_status TEXT NOT NULL DEFAULT 'pending',
	blockchain_tx_hash  TEXT,
	verified_at         TIMESTAMPTZ,
	expires_at          TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS audit_events (
	id          BIGSERIAL PRIMARY KEY,
	action      TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	document_id TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL DEFAULT '',
	client_ip   TEXT NOT NULL DEFAULT '',
	platform    TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_user ON audit_events (user_id, occurred_at DESC);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
