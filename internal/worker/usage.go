package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmehdipour/api-portal/internal/kafka"
	"github.com/jmehdipour/api-portal/internal/metrics"
	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmehdipour/api-portal/internal/repository"
	"go.uber.org/zap"
)

// Fetcher is the consumer side of the usage topic.
type Fetcher interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// UsageIngest:
// - fetches usage envelopes from Kafka,
// - writes them to ClickHouse in batches,
// - bumps the per-client daily counters in Redis,
// - commits offsets only after both stores accepted the batch.
type UsageIngest struct {
	// Dependencies
	Consumer Fetcher
	Events   repository.UsageEventsRepository
	Counters repository.UsageCountersRepository
	Log      *zap.Logger

	// Behavior
	BatchSize    int           // max buffered messages per flush
	BatchWait    time.Duration // max time to wait before flush
	FlushTimeout time.Duration // budget for the final flush on shutdown
}

// NewUsageIngest builds a worker with sane defaults.
func NewUsageIngest(
	consumer Fetcher,
	eventsRepo repository.UsageEventsRepository,
	countersRepo repository.UsageCountersRepository,
	log *zap.Logger,
) *UsageIngest {
	return &UsageIngest{
		Consumer:     consumer,
		Events:       eventsRepo,
		Counters:     countersRepo,
		Log:          log,
		BatchSize:    500,
		BatchWait:    500 * time.Millisecond,
		FlushTimeout: 5 * time.Second,
	}
}

// Run blocks until ctx is cancelled, then flushes what is buffered.
func (w *UsageIngest) Run(ctx context.Context) error {
	if w.Consumer == nil || w.Events == nil || w.Counters == nil {
		return errors.New("usage-ingest: missing dependency")
	}
	if w.Log == nil {
		w.Log = zap.NewNop()
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 500
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 500 * time.Millisecond
	}
	if w.FlushTimeout <= 0 {
		w.FlushTimeout = 5 * time.Second
	}

	msgCh := make(chan kafka.Message, w.BatchSize*2)
	go w.fetchLoop(ctx, msgCh)

	w.runBatchWriter(ctx, msgCh)
	return nil
}

func (w *UsageIngest) fetchLoop(ctx context.Context, out chan<- kafka.Message) {
	defer close(out)
	for {
		m, err := w.Consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Log.Warn("usage-ingest: kafka fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return
		}
	}
}

// batch keeps every fetched message (for in-order commits) and the decoded
// events among them. Malformed messages are committed but never stored.
type batch struct {
	msgs   []kafka.Message
	events []model.UsageEvent
}

func (b *batch) add(m kafka.Message) bool {
	b.msgs = append(b.msgs, m)

	var ev model.UsageEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil || !ev.Valid() {
		return false
	}
	b.events = append(b.events, ev)
	return true
}

func (b *batch) reset() {
	b.msgs = b.msgs[:0]
	b.events = b.events[:0]
}

// dailyIncrements folds events into one increment per client and UTC day.
func dailyIncrements(events []model.UsageEvent) []repository.DailyIncrement {
	type key struct {
		client string
		day    string
	}
	idx := make(map[key]int, len(events))
	out := make([]repository.DailyIncrement, 0, len(events))
	for _, ev := range events {
		day := ev.OccurredAt.UTC()
		k := key{client: ev.ClientID, day: day.Format(time.DateOnly)}
		if i, ok := idx[k]; ok {
			out[i].N++
			continue
		}
		idx[k] = len(out)
		out = append(out, repository.DailyIncrement{ClientID: ev.ClientID, Day: day, N: 1})
	}
	return out
}

// runBatchWriter does size/time-based flushes. When a flush fails the batch
// is kept and retried on the next tick; intake pauses once the batch holds
// four times BatchSize messages.
func (w *UsageIngest) runBatchWriter(ctx context.Context, in <-chan kafka.Message) {
	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var b batch
	maxPending := w.BatchSize * 4

	flush := func(ctx context.Context) {
		if len(b.msgs) == 0 {
			return
		}

		if err := w.Events.InsertBatch(ctx, b.events); err != nil {
			metrics.UsageEventsTotal.WithLabelValues("failed").Add(float64(len(b.events)))
			w.Log.Error("usage-ingest: clickhouse insert failed", zap.Int("events", len(b.events)), zap.Error(err))
			return
		}
		if err := w.Counters.Increment(ctx, dailyIncrements(b.events)); err != nil {
			w.Log.Error("usage-ingest: redis counters failed", zap.Int("events", len(b.events)), zap.Error(err))
			return
		}
		if err := w.Consumer.Commit(ctx, b.msgs...); err != nil {
			// offsets will be redelivered; ClickHouse collapses duplicates by id
			w.Log.Error("usage-ingest: kafka commit failed", zap.Error(err))
		}

		metrics.UsageEventsTotal.WithLabelValues("ingested").Add(float64(len(b.events)))
		w.Log.Debug("usage-ingest: flushed",
			zap.Int("messages", len(b.msgs)), zap.Int("events", len(b.events)))
		b.reset()
	}

	finalFlush := func() {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.FlushTimeout)
		defer cancel()
		flush(fctx)
	}

	for {
		src := in
		if len(b.msgs) >= maxPending {
			src = nil
		}

		select {
		case <-ctx.Done():
			// the fetcher closes in once it sees ctx; keep what it already handed over
			for m := range in {
				b.add(m)
			}
			finalFlush()
			return

		case m, ok := <-src:
			if !ok {
				finalFlush()
				return
			}
			if !b.add(m) {
				metrics.UsageEventsTotal.WithLabelValues("invalid").Inc()
				w.Log.Warn("usage-ingest: skipping malformed envelope",
					zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset))
			}
			if len(b.msgs)%w.BatchSize == 0 {
				flush(ctx)
			}

		case <-tick.C:
			flush(ctx)
		}
	}
}
