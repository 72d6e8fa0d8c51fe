package document_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hati/internal/audit"
	"hati/internal/document"
	"hati/internal/document/files"
	"hati/internal/document/store"
	"hati/internal/domain"
	"hati/pkg/contenthash"
	domainerrors "hati/pkg/domain-errors"
	"hati/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite

	store   *store.Memory
	files   *files.Memory
	inbox   chan audit.Event
	service *document.Service

	now time.Time
	ctx context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.files = files.NewMemory()
	s.inbox = make(chan audit.Event, 32)
	s.service = document.NewService(
		s.store,
		s.files,
		contenthash.SHA256,
		audit.NewPublisher(s.inbox, slog.Default()),
		nil,
		slog.Default(),
	)

	s.now = time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithUserID(s.ctx, "citizen-1")
}

func (s *ServiceSuite) upload(content string) *domain.Document {
	doc, err := s.service.Upload(s.ctx, document.UploadInput{
		OwnerID:      "citizen-1",
		Type:         domain.DocTypeBirthCertificate,
		Title:        "Birth Certificate",
		TitleSwahili: "Cheti cha Kuzaliwa",
		ContentType:  "application/pdf",
		Content:      []byte(content),
	})
	s.Require().NoError(err)
	return doc
}

func (s *ServiceSuite) TestUploadComputesHashAndExpiry() {
	doc := s.upload("birth certificate bytes")

	want := sha256.Sum256([]byte("birth certificate bytes"))
	s.Equal(hex.EncodeToString(want[:]), doc.ContentHash)
	s.Equal(domain.StatusPending, doc.VerificationStatus)
	s.Nil(doc.BlockchainTxHash)
	s.Require().NotNil(doc.ExpiresAt)
	s.Equal(s.now.Add(365*24*time.Hour), *doc.ExpiresAt)

	event := <-s.inbox
	s.Equal(audit.ActionDocumentUploaded, event.Action)
	s.Equal(doc.ID.String(), event.DocumentID)
}

func (s *ServiceSuite) TestUploadDuplicateContentConflicts() {
	s.upload("same bytes")

	_, err := s.service.Upload(s.ctx, document.UploadInput{
		OwnerID:     "citizen-1",
		Type:        domain.DocTypePassport,
		Title:       "Passport",
		ContentType: "application/pdf",
		Content:     []byte("same bytes"),
	})
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeConflict))
}

func (s *ServiceSuite) TestUploadValidation() {
	cases := []struct {
		name string
		in   document.UploadInput
	}{
		{"missing owner", document.UploadInput{Type: domain.DocTypeIDCard, Title: "t", Content: []byte("x")}},
		{"bad type", document.UploadInput{OwnerID: "c", Type: "tax_return", Title: "t", Content: []byte("x")}},
		{"missing title", document.UploadInput{OwnerID: "c", Type: domain.DocTypeIDCard, Content: []byte("x")}},
		{"empty content", document.UploadInput{OwnerID: "c", Type: domain.DocTypeIDCard, Title: "t"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Upload(s.ctx, tc.in)
			s.Require().Error(err)
			s.True(domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
		})
	}
}

func (s *ServiceSuite) TestGetScopedToOwner() {
	doc := s.upload("owned bytes")

	_, err := s.service.Get(s.ctx, "citizen-2", doc.ID)
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound),
		"another citizen's document must look nonexistent")

	got, err := s.service.Get(s.ctx, "citizen-1", doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.ID, got.ID)
}

func (s *ServiceSuite) TestListFilters() {
	birth := s.upload("birth")
	passport, err := s.service.Upload(s.ctx, document.UploadInput{
		OwnerID:     "citizen-1",
		Type:        domain.DocTypePassport,
		Title:       "Passport",
		ContentType: "application/pdf",
		Content:     []byte("passport"),
	})
	s.Require().NoError(err)

	all, err := s.service.List(s.ctx, "citizen-1")
	s.Require().NoError(err)
	s.Len(all, 2)

	byType, err := s.service.ListByType(s.ctx, "citizen-1", domain.DocTypePassport)
	s.Require().NoError(err)
	s.Require().Len(byType, 1)
	s.Equal(passport.ID, byType[0].ID)

	verified, err := s.service.ListVerified(s.ctx, "citizen-1")
	s.Require().NoError(err)
	s.Empty(verified)

	_, err = s.service.MarkVerifiedByHash(s.ctx, birth.ContentHash)
	s.Require().NoError(err)

	verified, err = s.service.ListVerified(s.ctx, "citizen-1")
	s.Require().NoError(err)
	s.Require().Len(verified, 1)
	s.Equal(birth.ID, verified[0].ID)
}

func (s *ServiceSuite) TestContentRoundTrip() {
	doc := s.upload("payload bytes")

	got, content, err := s.service.ContentBytes(s.ctx, "citizen-1", doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.ID, got.ID)
	s.Equal([]byte("payload bytes"), content)
}

func (s *ServiceSuite) TestDeleteRemovesRecordAndBytes() {
	doc := s.upload("doomed bytes")
	<-s.inbox // drain the upload event

	s.Require().NoError(s.service.Delete(s.ctx, "citizen-1", doc.ID))

	_, err := s.service.Get(s.ctx, "citizen-1", doc.ID)
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))

	_, _, err = s.service.ContentBytes(s.ctx, "citizen-1", doc.ID)
	s.Require().Error(err)

	event := <-s.inbox
	s.Equal(audit.ActionDocumentDeleted, event.Action)
}

func (s *ServiceSuite) TestMarkVerifiedByHash() {
	doc := s.upload("verify me")

	got, err := s.service.MarkVerifiedByHash(s.ctx, doc.ContentHash)
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, got.VerificationStatus)
	s.Require().NotNil(got.VerifiedAt)
	s.Equal(s.now, *got.VerifiedAt)
}

func (s *ServiceSuite) TestMarkVerifiedByHashUnknown() {
	_, err := s.service.MarkVerifiedByHash(s.ctx, "deadbeef")
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
}

func (s *ServiceSuite) TestMarkVerifiedRejectsExpired() {
	doc := s.upload("old bytes")

	later := requestcontext.WithTime(context.Background(), s.now.Add(366*24*time.Hour))
	got, err := s.service.MarkVerifiedByHash(later, doc.ContentHash)
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, got.VerificationStatus)
	s.Nil(got.VerifiedAt)
}

func (s *ServiceSuite) TestAttachTxHashIdempotent() {
	doc := s.upload("anchor me")
	txHash := "0xaaaa"

	s.Require().NoError(s.service.AttachTxHash(s.ctx, doc.ID, txHash))
	// Same hash again is a no-op.
	s.Require().NoError(s.service.AttachTxHash(s.ctx, doc.ID, txHash))

	got, err := s.service.Get(s.ctx, "citizen-1", doc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.BlockchainTxHash)
	s.Equal(txHash, *got.BlockchainTxHash)
	s.True(got.Anchored())
	s.Equal(domain.StatusVerified, got.VerificationStatus)

	// A different hash on an anchored document is a conflict.
	err = s.service.AttachTxHash(s.ctx, doc.ID, "0xbbbb")
	s.Require().Error(err)
	s.True(domainerrors.HasCode(err, domainerrors.CodeConflict))
}
