package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hati/internal/domain"
	"hati/pkg/sentinel"
)

// Postgres persists documents in PostgreSQL via database/sql.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const documentColumns = `id, owner_id, doc_type, title, title_swahili, content_type, size,
	content_hash, verification_status, blockchain_tx_hash, verified_at, expires_at,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, doc *domain.Document) error {
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.OwnerID, doc.Type, doc.Title, doc.TitleSwahili,
		doc.ContentType, doc.Size, doc.ContentHash, doc.VerificationStatus,
		doc.BlockchainTxHash, doc.VerifiedAt, doc.ExpiresAt,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, q, id))
}

func (s *Postgres) GetByHash(ctx context.Context, contentHash string) (*domain.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE content_hash = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, q, contentHash))
}

func (s *Postgres) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents
		WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) SetVerification(ctx context.Context, id uuid.UUID, status domain.VerificationStatus, verifiedAt time.Time) error {
	const q = `
		UPDATE documents
		SET verification_status = $2,
		    verified_at = CASE WHEN $2 = 'verified' THEN $3 ELSE verified_at END,
		    updated_at = $3
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, id, status, verifiedAt)
	if err != nil {
		return fmt.Errorf("set verification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set verification: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) AttachTxHash(ctx context.Context, id uuid.UUID, txHash string, at time.Time) error {
	// Idempotent for the same hash; a different hash must not overwrite.
	const q = `
		UPDATE documents
		SET blockchain_tx_hash = $2,
		    verification_status = 'verified',
		    verified_at = COALESCE(verified_at, $3),
		    updated_at = $3
		WHERE id = $1 AND (blockchain_tx_hash IS NULL OR blockchain_tx_hash = $2)`
	res, err := s.db.ExecContext(ctx, q, id, txHash, at)
	if err != nil {
		return fmt.Errorf("attach tx hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach tx hash: %w", err)
	}
	if n == 0 {
		// Either the row is missing or it is anchored under a different hash.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
		return sentinel.ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanOne(row rowScanner) (*domain.Document, error) {
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.Type, &doc.Title, &doc.TitleSwahili,
		&doc.ContentType, &doc.Size, &doc.ContentHash, &doc.VerificationStatus,
		&doc.BlockchainTxHash, &doc.VerifiedAt, &doc.ExpiresAt,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

// isUniqueViolation matches postgres unique constraint errors (SQLSTATE 23505)
// without importing the driver's error type into the store contract.
func isUniqueViolation(err error) bool {
	type sqlState interface{ SQLState() string }
	var st sqlState
	if errors.As(err, &st) {
		return st.SQLState() == "23505"
	}
	return false
}
