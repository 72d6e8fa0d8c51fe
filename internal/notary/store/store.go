// Package store caches confirmed receipts keyed by document ID.
//
// The cache is what makes reconciliation possible: a confirmation observed
// after the caller abandoned the wait is kept here until the record patch
// lands, bounded by a TTL.
package store

import (
	"context"

	"hati/internal/domain"
)

// ReceiptStore is the receipt cache contract. Pending handles are cached at
// submission time, so a reconciliation can re-poll a transaction whose wait
// was abandoned. Lookups return sentinel.ErrNotFound on a miss.
type ReceiptStore interface {
	Put(ctx context.Context, receipt domain.Receipt) error
	Get(ctx context.Context, documentID string) (domain.Receipt, error)
	Delete(ctx context.Context, documentID string) error

	PutHandle(ctx context.Context, handle domain.TxHandle) error
	GetHandle(ctx context.Context, documentID string) (domain.TxHandle, error)
}
