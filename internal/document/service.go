// Package document is the record service: the authoritative owner of document
// metadata and bytes. The notarization orchestrator reads and patches records
// only through this service, never the stores directly.
package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hati/internal/audit"
	"hati/internal/document/files"
	"hati/internal/document/store"
	"hati/internal/domain"
	"hati/internal/platform/metrics"
	"hati/pkg/contenthash"
	domainerrors "hati/pkg/domain-errors"
	"hati/pkg/requestcontext"
	"hati/pkg/sentinel"
)

// Documents expire 365 days after upload; expired documents fail off-chain
// verification.
const validityPeriod = 365 * 24 * time.Hour

const maxUploadSize = 20 << 20 // 20 MiB

type Service struct {
	store   store.Store
	files   files.FileStore
	hashAlg contenthash.Algorithm
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(
	st store.Store,
	fs files.FileStore,
	hashAlg contenthash.Algorithm,
	auditPub *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:   st,
		files:   fs,
		hashAlg: hashAlg,
		audit:   auditPub,
		metrics: m,
		logger:  logger,
	}
}

// UploadInput carries everything the citizen submits with the file.
type UploadInput struct {
	OwnerID      string
	Type         domain.DocumentType
	Title        string
	TitleSwahili string
	ContentType  string
	Content      []byte
}

// Upload validates the submission, computes the content hash, and persists
// record and bytes. A second upload with identical content is a conflict: the
// hash is the document's ledger identity and must stay unique.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*domain.Document, error) {
	if in.OwnerID == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "owner is required")
	}
	if !domain.ValidDocumentType(in.Type) {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "unknown document type")
	}
	if in.Title == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "title is required")
	}
	if len(in.Content) == 0 {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "document content is empty")
	}
	if len(in.Content) > maxUploadSize {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "document exceeds maximum size")
	}

	now := requestcontext.Now(ctx)
	expires := now.Add(validityPeriod)
	doc := &domain.Document{
		ID:                 uuid.New(),
		OwnerID:            in.OwnerID,
		Type:               in.Type,
		Title:              in.Title,
		TitleSwahili:       in.TitleSwahili,
		ContentType:        in.ContentType,
		Size:               int64(len(in.Content)),
		ContentHash:        contenthash.Sum(s.hashAlg, in.Content),
		VerificationStatus: domain.StatusPending,
		ExpiresAt:          &expires,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Create(ctx, doc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.Wrap(domainerrors.CodeConflict,
				"identical document already uploaded", err)
		}
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "create document record", err)
	}

	if err := s.files.Put(ctx, doc.ID.String(), bytes.NewReader(in.Content), doc.Size, in.ContentType); err != nil {
		// Bytes failed after the record: roll the record back rather than
		// leaving a document that can never be downloaded or hashed again.
		if delErr := s.store.Delete(ctx, doc.ID); delErr != nil {
			s.logger.Error("orphaned document record after file store failure",
				"document_id", doc.ID, "error", delErr)
		}
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "store document content", err)
	}

	s.metrics.IncrementDocumentsCreated()
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionDocumentUploaded,
		DocumentID: doc.ID.String(),
		Outcome:    string(doc.Type),
	})
	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"type", doc.Type,
		"size", doc.Size,
	)
	return doc, nil
}

// Get returns one record, scoped to its owner.
func (s *Service) Get(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translateStoreError(err)
	}
	if doc.OwnerID != ownerID {
		// Existence of other citizens' documents is not disclosed.
		return nil, domainerrors.New(domainerrors.CodeNotFound, "document not found")
	}
	return doc, nil
}

// List returns the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	docs, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "list documents", err)
	}
	return docs, nil
}

// ListByType filters the owner's documents to one category.
func (s *Service) ListByType(ctx context.Context, ownerID string, docType domain.DocumentType) ([]*domain.Document, error) {
	if !domain.ValidDocumentType(docType) {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "unknown document type")
	}
	docs, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "list documents", err)
	}
	out := docs[:0:0]
	for _, d := range docs {
		if d.Type == docType {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListVerified returns the owner's documents that passed off-chain
// verification.
func (s *Service) ListVerified(ctx context.Context, ownerID string) ([]*domain.Document, error) {
	docs, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "list documents", err)
	}
	out := docs[:0:0]
	for _, d := range docs {
		if d.VerificationStatus == domain.StatusVerified {
			out = append(out, d)
		}
	}
	return out, nil
}

// Content streams the stored bytes for download. The caller closes the reader.
func (s *Service) Content(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Get(ctx, id.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, domainerrors.Wrap(domainerrors.CodeNotFound, "document content missing", err)
		}
		return nil, nil, domainerrors.Wrap(domainerrors.CodeInternal, "fetch document content", err)
	}
	return doc, rc, nil
}

// ContentBytes reads the full stored content. Used by the orchestrator to
// recompute the hash before submission.
func (s *Service) ContentBytes(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Document, []byte, error) {
	doc, rc, err := s.Content(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, domainerrors.Wrap(domainerrors.CodeInternal, "read document content", err)
	}
	return doc, content, nil
}

// Delete removes the record and its bytes.
func (s *Service) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return translateStoreError(err)
	}
	if err := s.files.Delete(ctx, id.String()); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		// The record is gone; orphaned bytes are logged, not surfaced.
		s.logger.Error("delete document content failed", "document_id", id, "error", err)
	}

	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionDocumentDeleted,
		DocumentID: id.String(),
		Outcome:    string(doc.Type),
	})
	return nil
}

// MarkVerifiedByHash is the off-chain verification path: a hash lookup that
// flips pending to verified, or to rejected when the document has expired. It
// never touches the ledger.
func (s *Service) MarkVerifiedByHash(ctx context.Context, contentHash string) (*domain.Document, error) {
	doc, err := s.store.GetByHash(ctx, contentHash)
	if err != nil {
		return nil, translateStoreError(err)
	}

	now := requestcontext.Now(ctx)
	status := domain.StatusVerified
	if doc.Expired(now) {
		status = domain.StatusRejected
	}

	if err := s.store.SetVerification(ctx, doc.ID, status, now); err != nil {
		return nil, translateStoreError(err)
	}
	doc.VerificationStatus = status
	if status == domain.StatusVerified {
		doc.VerifiedAt = &now
	}
	doc.UpdatedAt = now

	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionDocumentVerified,
		DocumentID: doc.ID.String(),
		Outcome:    string(status),
	})
	return doc, nil
}

// AttachTxHash patches the record with a confirmed anchor. Same-hash retries
// are no-ops; a different hash on an anchored document is a conflict.
func (s *Service) AttachTxHash(ctx context.Context, id uuid.UUID, txHash string) error {
	if err := s.store.AttachTxHash(ctx, id, txHash, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domainerrors.Wrap(domainerrors.CodeConflict,
				"document anchored under a different transaction", err)
		}
		return translateStoreError(err)
	}
	return nil
}

func translateStoreError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.Wrap(domainerrors.CodeNotFound, "document not found", err)
	}
	return domainerrors.Wrap(domainerrors.CodeInternal, "document store", err)
}
