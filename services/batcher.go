package services

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"journeytrack/ingest/config"
	"journeytrack/ingest/database"
	"journeytrack/ingest/domain"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrQueueFull is returned by Enqueue under the reject
	// backpressure policy when the pending queue is at capacity.
	ErrQueueFull = errors.New("record queue is full")
)

// RecordSink receives one flush worth of newline-joined line-protocol
// records. Implemented by database.TimeSeriesDB.
type RecordSink interface {
	WriteRecords(ctx context.Context, payload []byte) error
}

// DedupCache filters already-written events out of a batch and marks
// written ones. Implemented by database.DedupRedis; a nil cache
// disables duplicate suppression.
type DedupCache interface {
	IsEventProcessed(ctx context.Context, key string) (bool, error)
	AreEventsProcessed(ctx context.Context, keys []string) (map[string]bool, error)
	SetEventsProcessed(ctx context.Context, keys []string) error
}

type writerCounters struct {
	enqueued       atomic.Uint64
	flushed        atomic.Uint64
	flushes        atomic.Uint64
	writeAttempts  atomic.Uint64
	retries        atomic.Uint64
	droppedBatches atomic.Uint64
	droppedRecords atomic.Uint64
	duplicates     atomic.Uint64
}

// RecordBatcher accumulates encoded records and flushes them to the
// storage backend. The pending queue is the only shared mutable state
// between the request handlers (producers) and the single background
// flush loop (consumer); records themselves are immutable once
// enqueued.
type RecordBatcher struct {
	queue         chan domain.EncodedRecord
	batchSize     int
	flushInterval time.Duration
	blockOnFull   bool
	maxAttempts   int
	backoffBase   time.Duration
	writeTimeout  time.Duration
	sink          RecordSink
	dedup         DedupCache

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex
	isRunning    bool
	currentBatch []domain.EncodedRecord

	counters writerCounters
}

// NewRecordBatcher creates a new RecordBatcher instance. dedup may be
// nil, in which case every record in a batch is written.
func NewRecordBatcher(cfg *config.WriterConfig, writeTimeout time.Duration, sink RecordSink, dedup DedupCache) *RecordBatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &RecordBatcher{
		queue:         make(chan domain.EncodedRecord, cfg.QueueCapacity),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval(),
		blockOnFull:   cfg.BackpressurePolicy == config.PolicyBlock,
		maxAttempts:   cfg.MaxRetryAttempts,
		backoffBase:   cfg.BackoffBaseDelay(),
		writeTimeout:  writeTimeout,
		sink:          sink,
		dedup:         dedup,
		ctx:           ctx,
		cancel:        cancel,
		currentBatch:  make([]domain.EncodedRecord, 0, cfg.BatchSize),
	}
}

// Start launches the background flush loop.
func (b *RecordBatcher) Start() {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return
	}
	b.isRunning = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.worker()
	log.Println("RecordBatcher started")
}

// Enqueue adds a record to the pending queue. Under the reject policy
// a full queue fails fast with ErrQueueFull; under the block policy the
// call waits for space until the caller's context expires. This is the
// only point where a request can be slowed by downstream congestion.
func (b *RecordBatcher) Enqueue(ctx context.Context, record domain.EncodedRecord) error {
	if b.blockOnFull {
		select {
		case b.queue <- record:
			b.counters.enqueued.Add(1)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-b.ctx.Done():
			return ErrQueueFull
		}
	}

	select {
	case b.queue <- record:
		b.counters.enqueued.Add(1)
		return nil
	default:
		return ErrQueueFull
	}
}

// worker collects records and flushes on batch size or interval,
// whichever comes first.
func (b *RecordBatcher) worker() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.flushRemaining()
			return

		case record := <-b.queue:
			b.mu.Lock()
			b.currentBatch = append(b.currentBatch, record)
			shouldFlush := len(b.currentBatch) >= b.batchSize
			b.mu.Unlock()

			if shouldFlush {
				b.flushBatch()
			}

		case <-ticker.C:
			b.mu.Lock()
			hasRecords := len(b.currentBatch) > 0
			b.mu.Unlock()

			if hasRecords {
				b.flushBatch()
			}
		}
	}
}

// flushBatch writes the pending batch in one HTTP request. Transient
// failures are retried with exponential backoff while the batch is
// held; a permanent failure or retry exhaustion drops the batch and
// records the loss, since the callers were already acknowledged.
func (b *RecordBatcher) flushBatch() {
	b.mu.Lock()
	if len(b.currentBatch) == 0 {
		b.mu.Unlock()
		return
	}
	batch := make([]domain.EncodedRecord, len(b.currentBatch))
	copy(batch, b.currentBatch)
	b.currentBatch = b.currentBatch[:0]
	b.mu.Unlock()

	pending := b.filterProcessed(batch)
	if len(pending) == 0 {
		log.Printf("RecordBatcher: all %d records in batch were already written", len(batch))
		return
	}

	lines := make([][]byte, len(pending))
	keys := make([]string, len(pending))
	for i, record := range pending {
		lines[i] = record.Line
		keys[i] = record.Key
	}
	payload := bytes.Join(lines, []byte{'\n'})

	if err := b.writeWithRetry(payload); err != nil {
		b.counters.droppedBatches.Add(1)
		b.counters.droppedRecords.Add(uint64(len(pending)))
		log.Printf("RecordBatcher: DATA LOSS: dropping batch of %d records: %v", len(pending), err)
		return
	}

	b.counters.flushes.Add(1)
	b.counters.flushed.Add(uint64(len(pending)))
	log.Printf("RecordBatcher: flushed batch of %d records (filtered from %d)", len(pending), len(batch))

	if b.dedup != nil {
		go func() {
			if err := b.dedup.SetEventsProcessed(context.Background(), keys); err != nil {
				log.Printf("RecordBatcher: failed to mark records as written in Redis: %v", err)
			}
		}()
	}
}

// writeWithRetry performs the backend write, retrying transient
// failures (5xx, network errors) with exponential backoff up to the
// configured attempt count. 4xx responses abort immediately.
func (b *RecordBatcher) writeWithRetry(payload []byte) error {
	operation := func() error {
		b.counters.writeAttempts.Add(1)

		ctx, cancel := context.WithTimeout(context.Background(), b.writeTimeout)
		defer cancel()

		err := b.sink.WriteRecords(ctx, payload)
		if err == nil {
			return nil
		}

		var writeErr *database.WriteError
		if errors.As(err, &writeErr) && writeErr.Permanent() {
			return backoff.Permanent(err)
		}

		b.counters.retries.Add(1)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.backoffBase
	policy.MaxElapsedTime = 0

	maxRetries := uint64(0)
	if b.maxAttempts > 1 {
		maxRetries = uint64(b.maxAttempts - 1)
	}
	return backoff.Retry(operation, backoff.WithMaxRetries(policy, maxRetries))
}

// filterProcessed drops records whose dedup key is already marked as
// written. A failing cache never blocks delivery: on error the whole
// batch is written.
func (b *RecordBatcher) filterProcessed(batch []domain.EncodedRecord) []domain.EncodedRecord {
	if b.dedup == nil {
		return batch
	}

	keys := make([]string, len(batch))
	for i, record := range batch {
		keys[i] = record.Key
	}

	processed, err := b.dedup.AreEventsProcessed(context.Background(), keys)
	if err != nil {
		log.Printf("RecordBatcher: dedup check failed, writing full batch: %v", err)
		return batch
	}

	pending := make([]domain.EncodedRecord, 0, len(batch))
	for _, record := range batch {
		if done, exists := processed[record.Key]; exists && done {
			b.counters.duplicates.Add(1)
			continue
		}
		pending = append(pending, record)
	}
	return pending
}

// flushRemaining drains the queue and flushes everything left during
// shutdown.
func (b *RecordBatcher) flushRemaining() {
	b.mu.Lock()
	remaining := len(b.currentBatch)
	b.mu.Unlock()

	if remaining > 0 {
		log.Printf("RecordBatcher: flushing %d remaining records during shutdown", remaining)
		b.flushBatch()
	}

	drained := 0
	for {
		select {
		case record := <-b.queue:
			b.mu.Lock()
			b.currentBatch = append(b.currentBatch, record)
			full := len(b.currentBatch) >= b.batchSize
			b.mu.Unlock()
			drained++
			if full {
				b.flushBatch()
			}
		default:
			if drained > 0 {
				log.Printf("RecordBatcher: drained %d records from queue during shutdown", drained)
			}
			b.flushBatch()
			return
		}
	}
}

// Shutdown gracefully stops the batcher, flushing pending records.
func (b *RecordBatcher) Shutdown() error {
	b.mu.Lock()
	if !b.isRunning {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	log.Println("RecordBatcher: initiating graceful shutdown...")
	b.cancel()
	b.wg.Wait()
	log.Println("RecordBatcher: shutdown complete")
	return nil
}

// Stats returns a snapshot of the writer's operational counters.
func (b *RecordBatcher) Stats() domain.WriterStats {
	b.mu.Lock()
	pending := len(b.currentBatch)
	b.mu.Unlock()

	return domain.WriterStats{
		QueueDepth:     len(b.queue),
		PendingBatch:   pending,
		Enqueued:       b.counters.enqueued.Load(),
		Flushed:        b.counters.flushed.Load(),
		Flushes:        b.counters.flushes.Load(),
		WriteAttempts:  b.counters.writeAttempts.Load(),
		Retries:        b.counters.retries.Load(),
		DroppedBatches: b.counters.droppedBatches.Load(),
		DroppedRecords: b.counters.droppedRecords.Load(),
		Duplicates:     b.counters.duplicates.Load(),
	}
}
