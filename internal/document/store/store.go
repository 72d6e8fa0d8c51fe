// Package store persists document records. Implementations return
// pkg/sentinel errors; the document service translates them into domain
// errors.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hati/internal/domain"
)

// Store is the record persistence contract.
type Store interface {
	Create(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	GetByHash(ctx context.Context, contentHash string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// SetVerification flips the off-chain verification axis only.
	SetVerification(ctx context.Context, id uuid.UUID, status domain.VerificationStatus, verifiedAt time.Time) error

	// AttachTxHash records the on-chain anchor and marks the document
	// verified in one write. Idempotent for the same txHash; a different
	// txHash on an anchored document returns sentinel.ErrConflict.
	AttachTxHash(ctx context.Context, id uuid.UUID, txHash string, at time.Time) error
}
