// Package ledger submits notarization commitments to the chain contract and
// waits for their confirmation.
//
// The client never signs: call data goes to the external signing agent via the
// wallet boundary, and confirmation is observed by polling the node for a
// receipt. This layer does not deduplicate submissions; that is the
// orchestrator's job.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hati/internal/domain"
	"hati/internal/platform/config"
	"hati/internal/platform/jsonrpc"
	"hati/internal/wallet"
	domainerrors "hati/pkg/domain-errors"
	"hati/pkg/requestcontext"
)

// Signer hands unsigned transactions to the external signing agent. The
// wallet connector satisfies this.
type Signer interface {
	SendTransaction(ctx context.Context, tx wallet.TxRequest) (string, error)
}

type Client struct {
	rpc    *jsonrpc.Client
	signer Signer
	cfg    config.Ledger
	logger *slog.Logger
}

func NewClient(cfg config.Ledger, signer Signer, logger *slog.Logger) *Client {
	return &Client{
		rpc:    jsonrpc.NewClient(cfg.RPCURL),
		signer: signer,
		cfg:    cfg,
		logger: logger,
	}
}

// Submit records (documentID, contentHash) under the signer's identity and
// returns a pending handle. Submission is not confirmation.
func (c *Client) Submit(ctx context.Context, documentID uuid.UUID, contentHash, signerAddress string) (domain.TxHandle, error) {
	callData, err := encodeNotarizeCall(documentID, contentHash)
	if err != nil {
		return domain.TxHandle{}, domainerrors.Wrap(domainerrors.CodeInvalidInput, "encode notarize call", err)
	}

	txHash, err := c.signer.SendTransaction(ctx, wallet.TxRequest{
		From: signerAddress,
		To:   c.cfg.ContractAddress,
		Data: callData,
	})
	if err != nil {
		return domain.TxHandle{}, translateSubmitError(err)
	}

	c.logger.Info("notarization submitted",
		"document_id", documentID,
		"tx_hash", txHash,
	)
	return domain.TxHandle{
		TxHash:     txHash,
		DocumentID: documentID.String(),
		From:       signerAddress,
		Submitted:  requestcontext.Now(ctx),
	}, nil
}

// AwaitConfirmation polls for the transaction receipt until the configured
// deadline. A mined transaction with a failed status is a revert, not a
// timeout.
func (c *Client) AwaitConfirmation(ctx context.Context, handle domain.TxHandle) (domain.Receipt, error) {
	deadline := time.NewTimer(c.cfg.ConfirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, found, err := c.fetchReceipt(ctx, handle)
		switch {
		case err != nil && domainerrors.HasCode(err, domainerrors.CodeNetworkError):
			// Transient node trouble is not an outcome; keep polling until
			// the deadline decides.
			c.logger.Warn("receipt poll failed", "tx_hash", handle.TxHash, "error", err)
		case err != nil:
			return domain.Receipt{}, err
		case found:
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return domain.Receipt{}, ctx.Err()
		case <-deadline.C:
			return domain.Receipt{}, domainerrors.New(domainerrors.CodeTimeout,
				"transaction not confirmed within deadline")
		case <-ticker.C:
		}
	}
}

// PollReceipt asks the node once, without waiting. found=false with nil error
// means the transaction is still pending. Reconciliation uses this to check
// on an abandoned wait without blocking a second time.
func (c *Client) PollReceipt(ctx context.Context, handle domain.TxHandle) (domain.Receipt, bool, error) {
	return c.fetchReceipt(ctx, handle)
}

// fetchReceipt asks the node once. found=false with nil error means the
// transaction is still pending.
func (c *Client) fetchReceipt(ctx context.Context, handle domain.TxHandle) (domain.Receipt, bool, error) {
	var raw *rpcReceipt
	if err := c.rpc.Call(ctx, "eth_getTransactionReceipt", []any{handle.TxHash}, &raw); err != nil {
		return domain.Receipt{}, false, domainerrors.Wrap(domainerrors.CodeNetworkError,
			"fetch transaction receipt", err)
	}
	if raw == nil {
		return domain.Receipt{}, false, nil
	}

	if !raw.succeeded() {
		return domain.Receipt{}, false, domainerrors.New(domainerrors.CodeTransactionRevert,
			"transaction reverted on chain")
	}

	blockNumber, err := parseHexQuantity(raw.BlockNumber)
	if err != nil {
		return domain.Receipt{}, false, domainerrors.Wrap(domainerrors.CodeNetworkError,
			"malformed receipt", err)
	}
	gasUsed, err := parseHexQuantity(raw.GasUsed)
	if err != nil {
		return domain.Receipt{}, false, domainerrors.Wrap(domainerrors.CodeNetworkError,
			"malformed receipt", err)
	}

	receipt := domain.Receipt{
		TxHash:      raw.TransactionHash,
		BlockNumber: blockNumber,
		GasUsed:     gasUsed,
		Success:     true,
		ConfirmedAt: requestcontext.Now(ctx),
	}
	if log, ok := raw.notarizedLog(c.cfg.ContractAddress); ok {
		docID, contentHash, err := decodeNotarizedLog(log.Topics, log.Data)
		if err != nil {
			c.logger.Warn("undecodable notarized log", "tx_hash", handle.TxHash, "error", err)
		} else {
			receipt.DocumentID = docID
			receipt.ContentHash = contentHash
		}
	}
	return receipt, true, nil
}

// translateSubmitError maps signer and node failures onto the domain taxonomy.
func translateSubmitError(err error) error {
	var perr *wallet.ProviderError
	if errors.As(err, &perr) {
		if perr.Code == wallet.CodeProviderUserRejected {
			return domainerrors.Wrap(domainerrors.CodeSignerRejected,
				"signer declined the transaction", err)
		}
		return domainerrors.Wrap(domainerrors.CodeWalletUnavailable,
			"wallet provider unavailable", err)
	}

	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		switch {
		case rpcErr.Code == wallet.CodeProviderUserRejected:
			return domainerrors.Wrap(domainerrors.CodeSignerRejected,
				"signer declined the transaction", err)
		case rpcErr.Code == 3, strings.Contains(strings.ToLower(rpcErr.Message), "revert"):
			// Code 3 is "execution reverted"; some nodes only say so in the
			// message.
			return domainerrors.Wrap(domainerrors.CodeTransactionRevert,
				"transaction rejected by contract", err)
		}
	}
	return domainerrors.Wrap(domainerrors.CodeNetworkError, "submit transaction", err)
}
