package services

import (
	"context"
	"fmt"
	"log"

	"journeytrack/ingest/config"
	"journeytrack/ingest/domain"
	"journeytrack/ingest/lineproto"

	"github.com/google/uuid"
)

var _ domain.EventService = &eventService{}

type eventService struct {
	batcher *RecordBatcher
	dedup   DedupCache
}

// AcceptEvent encodes a validated event and hands it to the batching
// writer. Acceptance is decoupled from durability: a 200 means the
// record is queued, not that the backend write happened.
func (e *eventService) AcceptEvent(ctx context.Context, event *domain.CanonicalEvent) (*domain.EventResponse, error) {
	if e.dedup != nil {
		processed, err := e.dedup.IsEventProcessed(ctx, event.UniqueKey())
		if err != nil {
			// Dedup is best-effort; the backend tolerates duplicates.
			log.Printf("eventService: dedup lookup failed: %v", err)
		}
		if processed {
			return &domain.EventResponse{
				Accepted: true,
				Message:  "event already processed",
			}, nil
		}
	}

	record, err := lineproto.Encode(event)
	if err != nil {
		// Unreachable for events the validator produced.
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	if err := e.batcher.Enqueue(ctx, *record); err != nil {
		return &domain.EventResponse{
			Accepted: false,
			Message:  "record queue is full, please try again later",
		}, err
	}

	return &domain.EventResponse{
		Accepted: true,
		Token:    uuid.NewString(),
		Message:  "event accepted",
	}, nil
}

// WriterStats exposes the batching writer's operational counters.
func (e *eventService) WriterStats() domain.WriterStats {
	return e.batcher.Stats()
}

// NewEventService returns a domain.EventService writing through the
// provided sink. dedup may be nil when Redis is unavailable.
func NewEventService(sink RecordSink, cfg *config.Config, dedup DedupCache) (domain.EventService, error) {
	if sink == nil {
		return nil, fmt.Errorf("record sink cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	batcher := NewRecordBatcher(&cfg.Writer, cfg.Backend.WriteTimeout(), sink, dedup)
	batcher.Start()

	return &eventService{
		batcher: batcher,
		dedup:   dedup,
	}, nil
}

// Shutdown gracefully shuts down the service's batcher, flushing
// pending records.
func (e *eventService) Shutdown() error {
	if e.batcher != nil {
		return e.batcher.Shutdown()
	}
	return nil
}

// ShutdownEventService gracefully shuts down an event service if it
// supports shutdown.
func ShutdownEventService(service domain.EventService) error {
	if srv, ok := service.(interface{ Shutdown() error }); ok {
		return srv.Shutdown()
	}
	return nil
}
