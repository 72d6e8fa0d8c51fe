//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hati/internal/document/store"
	"hati/internal/domain"
	"hati/internal/platform/database"
	"hati/pkg/sentinel"
	"hati/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	err := database.Migrate(context.Background(), s.pg.DB)
	s.Require().NoError(err)
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(context.Background(), `TRUNCATE documents`)
	s.Require().NoError(err)
}

func makeDocument(ownerID string) *domain.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	expires := now.AddDate(1, 0, 0)
	return &domain.Document{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Type:               domain.DocTypeBirthCertificate,
		Title:              "Birth Certificate",
		TitleSwahili:       "Cheti cha Kuzaliwa",
		ContentType:        "application/pdf",
		Size:               2048,
		ContentHash:        uuid.NewString() + uuid.NewString(),
		VerificationStatus: domain.StatusPending,
		ExpiresAt:          &expires,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	doc := makeDocument("user-1")

	s.Require().NoError(s.store.Create(ctx, doc))

	got, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.OwnerID, got.OwnerID)
	s.Equal(doc.Type, got.Type)
	s.Equal(doc.TitleSwahili, got.TitleSwahili)
	s.Equal(doc.ContentHash, got.ContentHash)
	s.Equal(domain.StatusPending, got.VerificationStatus)
	s.False(got.Anchored())
	s.Require().NotNil(got.ExpiresAt)
	s.Equal(doc.ExpiresAt.UnixMicro(), got.ExpiresAt.UnixMicro())
}

func (s *PostgresStoreSuite) TestDuplicateHashConflicts() {
	ctx := context.Background()
	doc := makeDocument("user-1")
	s.Require().NoError(s.store.Create(ctx, doc))

	dup := makeDocument("user-2")
	dup.ContentHash = doc.ContentHash
	err := s.store.Create(ctx, dup)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestGetByHash() {
	ctx := context.Background()
	doc := makeDocument("user-1")
	s.Require().NoError(s.store.Create(ctx, doc))

	got, err := s.store.GetByHash(ctx, doc.ContentHash)
	s.Require().NoError(err)
	s.Equal(doc.ID, got.ID)

	_, err = s.store.GetByHash(ctx, "no-such-hash")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByOwnerOrdersNewestFirst() {
	ctx := context.Background()
	first := makeDocument("user-1")
	s.Require().NoError(s.store.Create(ctx, first))

	second := makeDocument("user-1")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	second.UpdatedAt = second.CreatedAt
	s.Require().NoError(s.store.Create(ctx, second))

	other := makeDocument("user-2")
	s.Require().NoError(s.store.Create(ctx, other))

	docs, err := s.store.ListByOwner(ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(second.ID, docs[0].ID)
	s.Equal(first.ID, docs[1].ID)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	doc := makeDocument("user-1")
	s.Require().NoError(s.store.Create(ctx, doc))

	s.Require().NoError(s.store.Delete(ctx, doc.ID))
	_, err := s.store.Get(ctx, doc.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Delete(ctx, doc.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetVerification() {
	ctx := context.Background()
	doc := makeDocument("user-1")
	s.Require().NoError(s.store.Create(ctx, doc))

	at := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.SetVerification(ctx, doc.ID, domain.StatusVerified, at))

	got, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, got.VerificationStatus)
	s.Require().NotNil(got.VerifiedAt)
	s.Equal(at.UnixMicro(), got.VerifiedAt.UnixMicro())
}

func (s *PostgresStoreSuite) TestRejectionLeavesVerifiedAtUnset() {
	ctx := context.Background()
	doc := makeDocument("user-1")
	s.Require().NoError(s.store.Create(ctx, doc))

	at := time.Now().UTC()
	s.Require().NoError(s.store.SetVerification(ctx, doc.ID, domain.StatusRejected, at))

	got, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, got.VerificationStatus)
	s.Nil(got.VerifiedAt)
}

func (s *PostgresStoreSuite) TestAttachTxHash() {
	ctx := context.Background()
	doc := makeDocument("user-1")
	s.Require().NoError(s.store.Create(ctx, doc))

	at := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.AttachTxHash(ctx, doc.ID, "0xabc123", at))

	got, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.True(got.Anchored())
	s.Equal("0xabc123", *got.BlockchainTxHash)
	s.Equal(domain.StatusVerified, got.VerificationStatus)

	// Re-attaching the same hash is a no-op; a different hash is refused.
	s.Require().NoError(s.store.AttachTxHash(ctx, doc.ID, "0xabc123", at))
	err = s.store.AttachTxHash(ctx, doc.ID, "0xother", at)
	s.ErrorIs(err, sentinel.ErrConflict)

	err = s.store.AttachTxHash(ctx, uuid.New(), "0xabc123", at)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
