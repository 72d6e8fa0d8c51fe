// Package audit captures the append-only trail of citizen-visible operations.
//
// The publisher enriches events with request metadata and never blocks the
// caller on the sink: a full inbox drops the event with a log line rather
// than stalling a notarization mid-flight.
package audit

import (
	"context"
	"log/slog"
	"time"

	"hati/pkg/requestcontext"
)

// Appender is the sink contract the Worker drains into. Kafka sinks are
// append-only; queryable stores additionally implement Store.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store is an Appender that can also be read back per user.
type Store interface {
	Appender
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}

// Publisher accepts events from services and hands them to the worker's inbox.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

// Emit enriches the event from context and enqueues it. Non-blocking.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.UserID == "" {
		event.UserID = requestcontext.UserID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Platform == "" {
		event.Platform = requestcontext.DevicePlatform(ctx)
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit inbox full, dropping event",
			"action", event.Action,
			"document_id", event.DocumentID,
		)
	}
}

// Worker consumes audit events from the inbox and persists them. It runs in
// the background (under the process errgroup) so slow sinks never sit on the
// request path.
type Worker struct {
	sink   Appender
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Appender, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			// Persistence gets its own deadline: the request that emitted the
			// event may be long gone.
			appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := w.sink.Append(appendCtx, event); err != nil {
				w.logger.Error("append audit event failed",
					"action", event.Action,
					"error", err,
				)
			}
			cancel()
		}
	}
}
