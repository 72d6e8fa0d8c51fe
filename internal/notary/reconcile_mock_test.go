package notary_test

//go:generate mockgen -source=orchestrator.go -destination=mocks/mocks.go -package=mocks Documents,Ledger,Wallet

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"hati/internal/audit"
	"hati/internal/domain"
	"hati/internal/notary"
	"hati/internal/notary/mocks"
	"hati/internal/notary/store"
	"hati/pkg/contenthash"
	domainerrors "hati/pkg/domain-errors"
)

// Mock-driven tests for the reconciliation edges that are awkward to script
// through the full service stack: dependency failures at precise points.

type reconcileMocks struct {
	docs     *mocks.MockDocuments
	ledger   *mocks.MockLedger
	wallet   *mocks.MockWallet
	receipts *store.Memory
	orch     *notary.Orchestrator
}

func newReconcileMocks(t *testing.T) *reconcileMocks {
	ctrl := gomock.NewController(t)
	m := &reconcileMocks{
		docs:     mocks.NewMockDocuments(ctrl),
		ledger:   mocks.NewMockLedger(ctrl),
		wallet:   mocks.NewMockWallet(ctrl),
		receipts: store.NewMemory(time.Hour),
	}
	m.orch = notary.NewOrchestrator(
		m.docs, m.ledger, m.wallet, m.receipts,
		contenthash.SHA256,
		audit.NewPublisher(make(chan audit.Event, 64), slog.Default()),
		nil,
		slog.Default(),
	)
	return m
}

func unanchoredDoc(id uuid.UUID) *domain.Document {
	return &domain.Document{
		ID:                 id,
		OwnerID:            owner,
		Type:               domain.DocTypeIDCard,
		ContentHash:        "f00dfeed",
		VerificationStatus: domain.StatusPending,
	}
}

func TestReconcilePropagatesLookupFailure(t *testing.T) {
	m := newReconcileMocks(t)
	id := uuid.New()
	lookupErr := domainerrors.New(domainerrors.CodeInternal, "store down")

	m.docs.EXPECT().Get(gomock.Any(), owner, id).Return(nil, lookupErr)

	_, err := m.orch.Reconcile(context.Background(), owner, id)
	assert.ErrorIs(t, err, lookupErr)
}

func TestReconcileRejectsForeignReceipt(t *testing.T) {
	m := newReconcileMocks(t)
	id := uuid.New()
	doc := unanchoredDoc(id)

	require.NoError(t, m.receipts.Put(context.Background(), domain.Receipt{
		TxHash:      "0xT9",
		Success:     true,
		DocumentID:  id.String(),
		ContentHash: "something-else",
	}))

	// AttachTxHash must never run for a receipt that commits different bytes.
	m.docs.EXPECT().Get(gomock.Any(), owner, id).Return(doc, nil)

	_, err := m.orch.Reconcile(context.Background(), owner, id)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeConflict), "got %v", err)
}

func TestReconcilePatchFailure(t *testing.T) {
	m := newReconcileMocks(t)
	id := uuid.New()
	doc := unanchoredDoc(id)

	require.NoError(t, m.receipts.Put(context.Background(), domain.Receipt{
		TxHash:      "0xT9",
		Success:     true,
		DocumentID:  id.String(),
		ContentHash: doc.ContentHash,
	}))

	m.docs.EXPECT().Get(gomock.Any(), owner, id).Return(doc, nil)
	m.docs.EXPECT().AttachTxHash(gomock.Any(), id, "0xT9").
		Return(domainerrors.New(domainerrors.CodeInternal, "write failed"))

	_, err := m.orch.Reconcile(context.Background(), owner, id)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeReconciliationFailed), "got %v", err)
}

func TestReconcileRepollErrorPropagates(t *testing.T) {
	m := newReconcileMocks(t)
	id := uuid.New()
	doc := unanchoredDoc(id)
	handle := domain.TxHandle{TxHash: "0xT9", DocumentID: id.String()}
	netErr := domainerrors.New(domainerrors.CodeNetworkError, "node unreachable")

	require.NoError(t, m.receipts.PutHandle(context.Background(), handle))

	m.docs.EXPECT().Get(gomock.Any(), owner, id).Return(doc, nil)
	m.ledger.EXPECT().PollReceipt(gomock.Any(), handle).Return(domain.Receipt{}, false, netErr)

	_, err := m.orch.Reconcile(context.Background(), owner, id)
	assert.ErrorIs(t, err, netErr)
}

func TestReconcileCachesRepolledReceipt(t *testing.T) {
	m := newReconcileMocks(t)
	id := uuid.New()
	doc := unanchoredDoc(id)
	handle := domain.TxHandle{TxHash: "0xT9", DocumentID: id.String()}
	receipt := domain.Receipt{
		TxHash:      "0xT9",
		Success:     true,
		DocumentID:  id.String(),
		ContentHash: doc.ContentHash,
	}
	anchored := unanchoredDoc(id)
	anchored.BlockchainTxHash = &receipt.TxHash

	require.NoError(t, m.receipts.PutHandle(context.Background(), handle))

	m.docs.EXPECT().Get(gomock.Any(), owner, id).Return(doc, nil)
	m.ledger.EXPECT().PollReceipt(gomock.Any(), handle).Return(receipt, true, nil)
	m.docs.EXPECT().AttachTxHash(gomock.Any(), id, "0xT9").Return(nil)
	m.docs.EXPECT().Get(gomock.Any(), owner, id).Return(anchored, nil)

	got, err := m.orch.Reconcile(context.Background(), owner, id)
	require.NoError(t, err)
	assert.True(t, got.Anchored())

	cached, err := m.receipts.Get(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, receipt.TxHash, cached.TxHash)
}

func TestNotarizeSucceedsWhenFinalRereadFails(t *testing.T) {
	m := newReconcileMocks(t)
	id := uuid.New()
	content := []byte("anchored bytes")
	doc := unanchoredDoc(id)
	doc.ContentHash = contenthash.Sum(contenthash.SHA256, content)
	handle := domain.TxHandle{TxHash: "0xT9", DocumentID: id.String()}
	receipt := domain.Receipt{
		TxHash:      "0xT9",
		Success:     true,
		DocumentID:  id.String(),
		ContentHash: doc.ContentHash,
	}

	m.docs.EXPECT().Get(gomock.Any(), owner, id).Return(doc, nil)
	m.wallet.EXPECT().CurrentSession(gomock.Any()).Return(domain.WalletSession{Address: signerAddr})
	m.docs.EXPECT().ContentBytes(gomock.Any(), owner, id).Return(doc, content, nil)
	m.ledger.EXPECT().Submit(gomock.Any(), id, doc.ContentHash, signerAddr).Return(handle, nil)
	m.ledger.EXPECT().AwaitConfirmation(gomock.Any(), handle).Return(receipt, nil)
	m.docs.EXPECT().AttachTxHash(gomock.Any(), id, "0xT9").Return(nil)
	// The patch landed; a failed refresh must not demote the outcome.
	m.docs.EXPECT().Get(gomock.Any(), owner, id).
		Return(nil, domainerrors.New(domainerrors.CodeInternal, "store down"))

	result, err := m.orch.Notarize(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, "0xT9", result.TxHash)
	assert.Empty(t, result.Warning)
	assert.Equal(t, id, result.Document.ID)
}

func TestVerifyPropagatesLookupFailure(t *testing.T) {
	m := newReconcileMocks(t)
	lookupErr := domainerrors.New(domainerrors.CodeNotFound, "no document with this hash")

	m.docs.EXPECT().MarkVerifiedByHash(gomock.Any(), "f00dfeed").Return(nil, lookupErr)

	_, err := m.orch.Verify(context.Background(), "f00dfeed")
	assert.ErrorIs(t, err, lookupErr)
}
