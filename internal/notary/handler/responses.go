package handler

import (
	"time"

	"hati/internal/domain"
	"hati/internal/notary"
)

// NotarizeResponse reports a finished notarization. Warning is present only
// for the confirmed-but-unpatched case; the tx hash is authoritative either
// way.
type NotarizeResponse struct {
	Document DocumentResponse `json:"document"`
	TxHash   string           `json:"tx_hash"`
	Warning  string           `json:"warning,omitempty"`
}

// DocumentResponse mirrors the record service's wire shape for the fields the
// notarization flow touches.
type DocumentResponse struct {
	ID                 string     `json:"id"`
	ContentHash        string     `json:"content_hash"`
	VerificationStatus string     `json:"verification_status"`
	BlockchainTxHash   *string    `json:"blockchain_tx_hash,omitempty"`
	Anchored           bool       `json:"anchored"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
}

func fromResult(result *notary.Result) NotarizeResponse {
	return NotarizeResponse{
		Document: fromDocument(result.Document),
		TxHash:   result.TxHash,
		Warning:  string(result.Warning),
	}
}

func fromDocument(doc *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:                 doc.ID.String(),
		ContentHash:        doc.ContentHash,
		VerificationStatus: string(doc.VerificationStatus),
		BlockchainTxHash:   doc.BlockchainTxHash,
		Anchored:           doc.Anchored(),
		VerifiedAt:         doc.VerifiedAt,
	}
}
