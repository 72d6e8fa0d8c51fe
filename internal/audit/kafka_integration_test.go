//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"hati/internal/audit"
	"hati/internal/platform/config"
	"hati/pkg/requestcontext"
	"hati/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	broker string
	sink   *audit.KafkaSink
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	rp := containers.NewRedpandaContainer(s.T())
	s.broker = rp.Broker

	sink, err := audit.NewKafkaSink(config.Audit{
		KafkaBrokers: []string{s.broker},
		Topic:        "hati.audit",
	})
	s.Require().NoError(err)
	s.sink = sink
	s.T().Cleanup(sink.Close)
}

// consumeMatching reads the topic from the start until a record decodes to an
// event accepted by match. Reading from the start keeps tests independent of
// what earlier tests produced.
func (s *KafkaSinkSuite) consumeMatching(ctx context.Context, match func(audit.Event) bool) (*kgo.Record, audit.Event) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics("hati.audit"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	for {
		fetches := client.PollFetches(ctx)
		s.Require().NoError(fetches.Err())
		for _, record := range fetches.Records() {
			var event audit.Event
			s.Require().NoError(json.Unmarshal(record.Value, &event))
			if match(event) {
				return record, event
			}
		}
	}
}

func (s *KafkaSinkSuite) TestAppendPublishesKeyedByUser() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := audit.Event{
		Action:     audit.ActionNotarizeConfirmed,
		UserID:     "citizen-42",
		DocumentID: "doc-1",
		Outcome:    "success",
		Timestamp:  time.Now().UTC(),
	}
	s.Require().NoError(s.sink.Append(ctx, event))

	record, got := s.consumeMatching(ctx, func(e audit.Event) bool {
		return e.Action == audit.ActionNotarizeConfirmed
	})
	s.Equal("citizen-42", string(record.Key))
	s.Equal("doc-1", got.DocumentID)
	s.Equal("success", got.Outcome)
}

// The publisher enriches events from the request context before they reach the
// sink; run the full pipeline against a real broker.
func (s *KafkaSinkSuite) TestPublisherPipelineToKafka() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inbox := make(chan audit.Event, 16)
	publisher := audit.NewPublisher(inbox, slog.Default())
	worker := audit.NewWorker(s.sink, inbox, slog.Default())

	workerCtx, stopWorker := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(workerCtx)
	}()

	reqCtx := requestcontext.WithUserID(ctx, "citizen-7")
	reqCtx = requestcontext.WithClientMetadata(reqCtx, "203.0.113.9", "integration-test", "linux")
	publisher.Emit(reqCtx, audit.Event{
		Action:     audit.ActionDocumentUploaded,
		DocumentID: "doc-7",
	})

	_, got := s.consumeMatching(ctx, func(e audit.Event) bool {
		return e.Action == audit.ActionDocumentUploaded
	})
	s.Equal("citizen-7", got.UserID)
	s.Equal("203.0.113.9", got.ClientIP)
	s.False(got.Timestamp.IsZero())

	stopWorker()
	<-done
}
