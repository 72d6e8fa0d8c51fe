package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType enumerates the administrative document categories citizens can
// upload. The set mirrors the national service catalogue.
type DocumentType string

const (
	DocTypeBirthCertificate     DocumentType = "birth_certificate"
	DocTypeIDCard               DocumentType = "id_card"
	DocTypePassport             DocumentType = "passport"
	DocTypeDrivingLicense       DocumentType = "driving_license"
	DocTypeBusinessLicense      DocumentType = "business_license"
	DocTypeEducationCertificate DocumentType = "education_certificate"
	DocTypeMarriageCertificate  DocumentType = "marriage_certificate"
	DocTypeDeathCertificate     DocumentType = "death_certificate"
)

// ValidDocumentType reports whether t is a known category.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocTypeBirthCertificate, DocTypeIDCard, DocTypePassport,
		DocTypeDrivingLicense, DocTypeBusinessLicense,
		DocTypeEducationCertificate, DocTypeMarriageCertificate,
		DocTypeDeathCertificate:
		return true
	}
	return false
}

// VerificationStatus is the off-chain verification axis. It is independent of
// the on-chain axis: a document is anchored iff BlockchainTxHash is set.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// Document is the record service's view of an uploaded document.
//
// ContentHash is computed once at upload and immutable. BlockchainTxHash is set
// at most once, and only after a confirmed ledger transaction whose event data
// matches (ID, ContentHash).
type Document struct {
	ID                 uuid.UUID
	OwnerID            string
	Type               DocumentType
	Title              string
	TitleSwahili       string
	ContentType        string
	Size               int64
	ContentHash        string
	VerificationStatus VerificationStatus
	BlockchainTxHash   *string
	VerifiedAt         *time.Time
	ExpiresAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Anchored reports whether the document carries an on-chain proof.
func (d *Document) Anchored() bool {
	return d.BlockchainTxHash != nil && *d.BlockchainTxHash != ""
}

// Expired reports whether the document's validity window has closed at t.
func (d *Document) Expired(t time.Time) bool {
	return d.ExpiresAt != nil && t.After(*d.ExpiresAt)
}
