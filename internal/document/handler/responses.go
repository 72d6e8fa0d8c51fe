package handler

import (
	"time"

	"hati/internal/domain"
)

// DocumentResponse is the wire representation of a document record. Content
// bytes are never inlined; they travel through the download route.
type DocumentResponse struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	Title              string     `json:"title"`
	TitleSwahili       string     `json:"title_sw,omitempty"`
	ContentType        string     `json:"content_type"`
	Size               int64      `json:"size"`
	ContentHash        string     `json:"content_hash"`
	VerificationStatus string     `json:"verification_status"`
	BlockchainTxHash   *string    `json:"blockchain_tx_hash,omitempty"`
	Anchored           bool       `json:"anchored"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func fromDocument(doc *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:                 doc.ID.String(),
		Type:               string(doc.Type),
		Title:              doc.Title,
		TitleSwahili:       doc.TitleSwahili,
		ContentType:        doc.ContentType,
		Size:               doc.Size,
		ContentHash:        doc.ContentHash,
		VerificationStatus: string(doc.VerificationStatus),
		BlockchainTxHash:   doc.BlockchainTxHash,
		Anchored:           doc.Anchored(),
		VerifiedAt:         doc.VerifiedAt,
		ExpiresAt:          doc.ExpiresAt,
		CreatedAt:          doc.CreatedAt,
	}
}

func fromDocuments(docs []*domain.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out
}
