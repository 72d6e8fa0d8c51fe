package audit_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hati/internal/audit"
	"hati/pkg/requestcontext"
)

type AuditSuite struct {
	suite.Suite

	store *audit.MemoryStore
	inbox chan audit.Event
	pub   *audit.Publisher
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	s.store = audit.NewMemoryStore()
	s.inbox = make(chan audit.Event, 16)
	s.pub = audit.NewPublisher(s.inbox, slog.Default())
}

func (s *AuditSuite) TestEmitEnrichesFromContext() {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithUserID(ctx, "citizen-1")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", "test-agent", "chrome/linux")

	s.pub.Emit(ctx, audit.Event{
		Action:     audit.ActionDocumentUploaded,
		DocumentID: "doc-1",
	})

	got := <-s.inbox
	s.Equal(audit.ActionDocumentUploaded, got.Action)
	s.Equal("citizen-1", got.UserID)
	s.Equal("203.0.113.7", got.ClientIP)
	s.Equal("chrome/linux", got.Platform)
	s.Equal(now, got.Timestamp)
}

func (s *AuditSuite) TestEmitKeepsExplicitFields() {
	ctx := requestcontext.WithUserID(context.Background(), "citizen-1")

	s.pub.Emit(ctx, audit.Event{
		Action: audit.ActionNotarizeFailed,
		UserID: "citizen-override",
	})

	got := <-s.inbox
	s.Equal("citizen-override", got.UserID)
}

func (s *AuditSuite) TestEmitDropsWhenInboxFull() {
	tiny := make(chan audit.Event, 1)
	pub := audit.NewPublisher(tiny, slog.Default())

	pub.Emit(context.Background(), audit.Event{Action: audit.ActionDocumentUploaded})
	// Must not block even though the inbox is full.
	pub.Emit(context.Background(), audit.Event{Action: audit.ActionDocumentDeleted})

	s.Len(tiny, 1)
	got := <-tiny
	s.Equal(audit.ActionDocumentUploaded, got.Action)
}

func (s *AuditSuite) TestWorkerPersistsEvents() {
	worker := audit.NewWorker(s.store, s.inbox, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	s.pub.Emit(requestcontext.WithUserID(context.Background(), "citizen-1"), audit.Event{
		Action:     audit.ActionNotarizeConfirmed,
		DocumentID: "doc-1",
		Outcome:    "anchored",
	})

	s.Eventually(func() bool {
		events, err := s.store.ListByUser(context.Background(), "citizen-1")
		s.Require().NoError(err)
		return len(events) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	events, err := s.store.ListByUser(context.Background(), "citizen-1")
	s.Require().NoError(err)
	s.Equal(audit.ActionNotarizeConfirmed, events[0].Action)
	s.Equal("doc-1", events[0].DocumentID)
	s.Equal("anchored", events[0].Outcome)
}

func (s *AuditSuite) TestListByUserFiltersOtherUsers() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, audit.Event{Action: audit.ActionDocumentUploaded, UserID: "a"}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{Action: audit.ActionDocumentDeleted, UserID: "b"}))

	events, err := s.store.ListByUser(ctx, "a")
	s.Require().NoError(err)
	s.Len(events, 1)
	s.Equal(audit.ActionDocumentUploaded, events[0].Action)
}
