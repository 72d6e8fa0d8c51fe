// Package notary orchestrates anchoring a document's content hash on the
// ledger.
//
// The orchestrator is the only component allowed to write BlockchainTxHash,
// and it does so only after a confirmed receipt whose event payload matches
// the document. Per-document locking is fail-fast; nothing here retries
// automatically.
package notary

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hati/internal/audit"
	"hati/internal/domain"
	"hati/internal/notary/metrics"
	"hati/internal/notary/store"
	"hati/pkg/contenthash"
	domainerrors "hati/pkg/domain-errors"
	"hati/pkg/sentinel"
)

// Documents is the slice of the record service the orchestrator needs.
type Documents interface {
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Document, error)
	ContentBytes(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Document, []byte, error)
	MarkVerifiedByHash(ctx context.Context, contentHash string) (*domain.Document, error)
	AttachTxHash(ctx context.Context, id uuid.UUID, txHash string) error
}

// Ledger is the chain-facing contract. AwaitConfirmation blocks up to the
// configured deadline; PollReceipt is a single non-blocking check used during
// reconciliation.
type Ledger interface {
	Submit(ctx context.Context, documentID uuid.UUID, contentHash, signerAddress string) (domain.TxHandle, error)
	AwaitConfirmation(ctx context.Context, handle domain.TxHandle) (domain.Receipt, error)
	PollReceipt(ctx context.Context, handle domain.TxHandle) (domain.Receipt, bool, error)
}

// Wallet exposes the signer session. The orchestrator never prompts:
// connecting is a distinct, explicit user action.
type Wallet interface {
	CurrentSession(ctx context.Context) domain.WalletSession
}

// Result is a notarization outcome. Warning is set when the transaction
// confirmed but the record patch failed; the on-chain proof exists and a
// reconciliation retry will converge the mirror.
type Result struct {
	Document *domain.Document
	TxHash   string
	Warning  domainerrors.Code
}

type Orchestrator struct {
	documents Documents
	ledger    Ledger
	wallet    Wallet
	receipts  store.ReceiptStore
	hashAlg   contenthash.Algorithm
	locks     *locks
	audit     *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewOrchestrator(
	documents Documents,
	ledger Ledger,
	wallet Wallet,
	receipts store.ReceiptStore,
	hashAlg contenthash.Algorithm,
	auditPub *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		documents: documents,
		ledger:    ledger,
		wallet:    wallet,
		receipts:  receipts,
		hashAlg:   hashAlg,
		locks:     newLocks(),
		audit:     auditPub,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("hati/notary"),
	}
}

// Notarize anchors one document. The happy path is
// Unanchored -> Submitting -> AwaitingConfirmation -> Anchored; every failure
// releases the per-document lock so an explicit retry stays possible.
func (o *Orchestrator) Notarize(ctx context.Context, ownerID string, documentID uuid.UUID) (*Result, error) {
	ctx, span := o.tracer.Start(ctx, "notary.Notarize",
		trace.WithAttributes(attribute.String("document.id", documentID.String())))
	defer span.End()

	result, err := o.notarize(ctx, ownerID, documentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domainerrors.CodeOf(err)))
		o.metrics.IncrementAttempt(string(domainerrors.CodeOf(err)))
		return nil, err
	}
	outcome := "anchored"
	if result.Warning != "" {
		outcome = string(result.Warning)
	}
	span.SetAttributes(attribute.String("notary.outcome", outcome))
	o.metrics.IncrementAttempt(outcome)
	return result, nil
}

func (o *Orchestrator) notarize(ctx context.Context, ownerID string, documentID uuid.UUID) (*Result, error) {
	doc, err := o.documents.Get(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Anchored() {
		// Terminal: the lock is never touched for an anchored document.
		return nil, domainerrors.New(domainerrors.CodeAlreadyAnchored, "document is already anchored")
	}

	att, ok := o.locks.tryAcquire(documentID.String())
	if !ok {
		return nil, domainerrors.New(domainerrors.CodeOperationInProgress,
			"a notarization for this document is already in flight")
	}
	o.metrics.LockAcquired()
	defer func() {
		o.locks.release(documentID.String())
		o.metrics.LockReleased()
	}()

	// A cached confirmed receipt means the anchor already exists on chain and
	// only the mirror patch is outstanding. Submitting again would
	// double-anchor; reconciliation is the path that converges the mirror.
	if cached, err := o.receipts.Get(ctx, documentID.String()); err == nil {
		if cached.Matches(documentID.String(), doc.ContentHash) {
			return nil, domainerrors.New(domainerrors.CodeAlreadyAnchored,
				"document is anchored on chain, reconciliation pending")
		}
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		o.logger.Warn("receipt cache lookup failed", "document_id", documentID, "error", err)
	}

	session := o.wallet.CurrentSession(ctx)
	if !session.Connected() {
		return nil, domainerrors.New(domainerrors.CodeWalletNotConnected, "no wallet session")
	}

	// Recompute the hash from stored bytes before anything reaches the
	// ledger. A mutated record must not get an anchor for bytes it no longer
	// holds.
	doc, content, err := o.documents.ContentBytes(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	if contenthash.Sum(o.hashAlg, content) != doc.ContentHash {
		o.emitFailure(ctx, documentID, domainerrors.CodeHashMismatch)
		return nil, domainerrors.New(domainerrors.CodeHashMismatch,
			"stored content does not match the recorded hash")
	}

	if err := att.transition(StateSubmitting); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "attempt state", err)
	}
	handle, err := o.ledger.Submit(ctx, documentID, doc.ContentHash, session.Address)
	if err != nil {
		_ = att.transition(StateFailed)
		o.emitFailure(ctx, documentID, domainerrors.CodeOf(err))
		return nil, err
	}
	// The handle outlives this attempt: if the wait below is abandoned, a
	// later reconciliation re-polls it.
	if err := o.receipts.PutHandle(ctx, handle); err != nil {
		o.logger.Warn("cache tx handle failed", "document_id", documentID, "error", err)
	}
	o.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionNotarizeSubmitted,
		DocumentID: documentID.String(),
		Outcome:    handle.TxHash,
	})

	if err := att.transition(StateAwaitingConfirmation); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "attempt state", err)
	}
	receipt, err := o.ledger.AwaitConfirmation(ctx, handle)
	if err != nil {
		// Timeout, revert, or the caller walked away. The submission is not
		// retracted; the cached handle keeps retroactive completion possible.
		_ = att.transition(StateFailed)
		o.emitFailure(ctx, documentID, domainerrors.CodeOf(err))
		return nil, err
	}
	if !receipt.Matches(documentID.String(), doc.ContentHash) {
		_ = att.transition(StateFailed)
		o.emitFailure(ctx, documentID, domainerrors.CodeTransactionRevert)
		return nil, domainerrors.New(domainerrors.CodeTransactionRevert,
			"confirmed receipt does not commit this document")
	}

	if err := att.transition(StateAnchored); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "attempt state", err)
	}
	o.metrics.ObserveConfirmation(receipt.ConfirmedAt.Sub(handle.Submitted))
	if err := o.receipts.Put(ctx, receipt); err != nil {
		o.logger.Warn("cache receipt failed", "document_id", documentID, "error", err)
	}

	if err := o.documents.AttachTxHash(ctx, documentID, receipt.TxHash); err != nil {
		// Confirmed on chain, mirror stale. Success with a warning; the
		// cached receipt lets Reconcile converge later.
		o.logger.Error("record patch failed after confirmation",
			"document_id", documentID,
			"tx_hash", receipt.TxHash,
			"error", err,
		)
		o.audit.Emit(ctx, audit.Event{
			Action:     audit.ActionNotarizeConfirmed,
			DocumentID: documentID.String(),
			Outcome:    string(domainerrors.CodeReconciliationFailed),
		})
		return &Result{Document: doc, TxHash: receipt.TxHash, Warning: domainerrors.CodeReconciliationFailed}, nil
	}

	o.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionNotarizeConfirmed,
		DocumentID: documentID.String(),
		Outcome:    receipt.TxHash,
	})
	o.logger.Info("document anchored",
		"document_id", documentID,
		"tx_hash", receipt.TxHash,
		"block", receipt.BlockNumber,
	)

	// The anchor is committed at this point; a failed re-read must not turn
	// the outcome into an error. The caller gets the pre-patch document.
	refreshed, err := o.documents.Get(ctx, ownerID, documentID)
	if err != nil {
		o.logger.Warn("re-read after anchor failed", "document_id", documentID, "error", err)
		return &Result{Document: doc, TxHash: receipt.TxHash}, nil
	}
	return &Result{Document: refreshed, TxHash: receipt.TxHash}, nil
}

// Verify is the lock-free off-chain path: a hash lookup that flips the
// verification status. When a cached confirmation exists for a still
// unanchored document it also completes the anchor retroactively, which is
// the reconciliation trigger the abandoned-wait flow relies on.
func (o *Orchestrator) Verify(ctx context.Context, contentHash string) (*domain.Document, error) {
	doc, err := o.documents.MarkVerifiedByHash(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	if doc.Anchored() {
		return doc, nil
	}

	if reconciled, err := o.Reconcile(ctx, doc.OwnerID, doc.ID); err == nil {
		return reconciled, nil
	} else if !domainerrors.HasCode(err, domainerrors.CodeNotFound) &&
		!domainerrors.HasCode(err, domainerrors.CodeTimeout) {
		o.logger.Warn("opportunistic reconcile failed",
			"document_id", doc.ID, "error", err)
	}
	return doc, nil
}

// Reconcile re-applies a confirmed receipt to the off-chain mirror. It is
// idempotent: anchored documents return as-is, the same receipt can be
// applied any number of times, and a missing receipt is reported, never
// invented. With only a pending handle cached, the node is re-polled.
func (o *Orchestrator) Reconcile(ctx context.Context, ownerID string, documentID uuid.UUID) (*domain.Document, error) {
	ctx, span := o.tracer.Start(ctx, "notary.Reconcile",
		trace.WithAttributes(attribute.String("document.id", documentID.String())))
	defer span.End()

	doc, err := o.documents.Get(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Anchored() {
		return doc, nil
	}

	receipt, err := o.receipts.Get(ctx, documentID.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		receipt, err = o.repollHandle(ctx, documentID)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !receipt.Matches(documentID.String(), doc.ContentHash) {
		return nil, domainerrors.New(domainerrors.CodeConflict,
			"cached receipt does not commit this document")
	}

	if err := o.documents.AttachTxHash(ctx, documentID, receipt.TxHash); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeReconciliationFailed,
			"record patch failed", err)
	}

	o.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionReconciled,
		DocumentID: documentID.String(),
		Outcome:    receipt.TxHash,
	})
	o.logger.Info("document reconciled",
		"document_id", documentID,
		"tx_hash", receipt.TxHash,
	)
	return o.documents.Get(ctx, ownerID, documentID)
}

// repollHandle recovers a confirmation for a wait that was abandoned: the
// submission-time handle is re-polled, and a found receipt is cached like any
// other.
func (o *Orchestrator) repollHandle(ctx context.Context, documentID uuid.UUID) (domain.Receipt, error) {
	handle, err := o.receipts.GetHandle(ctx, documentID.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.Receipt{}, domainerrors.New(domainerrors.CodeNotFound,
			"no confirmed receipt or pending transaction for this document")
	}
	if err != nil {
		return domain.Receipt{}, domainerrors.Wrap(domainerrors.CodeInternal, "receipt cache", err)
	}

	// One check, no second confirmation wait.
	receipt, found, err := o.ledger.PollReceipt(ctx, handle)
	if err != nil {
		return domain.Receipt{}, err
	}
	if !found {
		return domain.Receipt{}, domainerrors.New(domainerrors.CodeTimeout,
			"transaction still unconfirmed")
	}
	if cacheErr := o.receipts.Put(ctx, receipt); cacheErr != nil {
		o.logger.Warn("cache receipt failed", "document_id", documentID, "error", cacheErr)
	}
	return receipt, nil
}

func (o *Orchestrator) emitFailure(ctx context.Context, documentID uuid.UUID, code domainerrors.Code) {
	o.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionNotarizeFailed,
		DocumentID: documentID.String(),
		Outcome:    string(code),
	})
}

// ActiveAttempts reports how many notarizations are in flight.
func (o *Orchestrator) ActiveAttempts() int {
	return o.locks.held()
}
