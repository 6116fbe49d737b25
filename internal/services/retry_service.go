// Package services – RetryService
//
// This file implements RetryService, the periodic processor that drains the
// retry queue. Each run selects the oldest due items, replays them against
// the event store with insert-or-ignore semantics (so a partially successful
// earlier attempt cannot produce duplicates), and either marks them processed
// or reschedules them with exponential backoff. Items that exhaust their
// retry budget are frozen in place for operator inspection. After every run
// the service compacts processed rows older than the retention window.
//
// Failure isolation: a failure on one item never aborts the batch. The run
// always completes and reports processed/failed counts.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-affiliate-backend/internal/domain"
	"github.com/tbourn/go-affiliate-backend/internal/repo"
)

// RunReport summarizes one processor pass.
type RunReport struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// RetryService replays queued click events and maintains the queue.
type RetryService struct {
	DB    *gorm.DB
	Clock clockwork.Clock

	// BatchSize caps how many due items one run picks up.
	BatchSize int
	// BaseBackoff is the backoff unit; attempt n is rescheduled
	// BaseBackoff * 2^n into the future, where n is the retry count after
	// incrementing. With the 5 minute default, failures land at +10m, +20m,
	// +40m.
	BaseBackoff time.Duration
	// QueueRetention is how long processed items are kept before compaction.
	QueueRetention time.Duration
	// DeadItemRetention, when positive, lets compaction also remove
	// permanently-failed items older than this. Zero keeps dead rows forever.
	DeadItemRetention time.Duration
	// OpTimeout bounds each store operation within a run.
	OpTimeout time.Duration
}

// NewRetryService constructs a RetryService, applying defaults for zero
// values (real clock, batch 100, 5 minute base backoff, 7 day retention,
// 5 second op timeout). DeadItemRetention defaults to zero: dead items are
// kept until an operator intervenes.
func NewRetryService(db *gorm.DB, clock clockwork.Clock, batchSize int, baseBackoff, queueRetention, deadItemRetention, opTimeout time.Duration) *RetryService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if baseBackoff <= 0 {
		baseBackoff = 5 * time.Minute
	}
	if queueRetention <= 0 {
		queueRetention = 7 * 24 * time.Hour
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &RetryService{
		DB:                db,
		Clock:             clock,
		BatchSize:         batchSize,
		BaseBackoff:       baseBackoff,
		QueueRetention:    queueRetention,
		DeadItemRetention: deadItemRetention,
		OpTimeout:         opTimeout,
	}
}

// ProcessRetryQueue runs one processor pass: select due items oldest-first,
// replay each, and compact old processed rows. Safe to invoke concurrently;
// the processed_at guard in the repo prevents double-claiming.
func (s *RetryService) ProcessRetryQueue(ctx context.Context) (*RunReport, error) {
	tr := otel.Tracer("services/RetryService")
	ctx, span := tr.Start(ctx, "ProcessRetryQueue")
	defer span.End()

	now := s.Clock.Now().UTC()

	listCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
	items, err := repo.ListDueRetries(listCtx, s.DB, now, s.BatchSize)
	cancel()
	if err != nil {
		return nil, err
	}

	report := &RunReport{}
	for _, item := range items {
		if err := s.replayItem(ctx, item); err != nil {
			report.Failed++
			retryFailed.Inc()
			s.reschedule(ctx, item, err)
			continue
		}

		claimCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
		claimed, err := repo.MarkRetryProcessed(claimCtx, s.DB, item.ID, s.Clock.Now().UTC())
		cancel()
		if err != nil {
			// The event is durably written (idempotently), so rescheduling is
			// harmless; the next attempt will hit the ON CONFLICT path.
			report.Failed++
			retryFailed.Inc()
			s.reschedule(ctx, item, err)
			continue
		}
		if claimed {
			report.Processed++
			retryProcessed.Inc()
		}
		// claimed == false: a concurrent run beat us to it; nothing to count.
	}

	span.SetAttributes(
		attribute.Int("retry.processed", report.Processed),
		attribute.Int("retry.failed", report.Failed),
	)

	s.compact(ctx)
	s.updateDepthGauges(ctx)

	if report.Processed > 0 || report.Failed > 0 {
		log.Info().
			Int("processed", report.Processed).
			Int("failed", report.Failed).
			Msg("retry queue pass complete")
	}
	return report, nil
}

// Status reports the pending/processed/failed bucket counts. Every queue row
// falls in exactly one bucket, so the three always sum to the table size.
func (s *RetryService) Status(ctx context.Context) (*repo.RetryQueueStatus, error) {
	tr := otel.Tracer("services/RetryService")
	ctx, span := tr.Start(ctx, "Status")
	defer span.End()

	statusCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
	defer cancel()
	return repo.CountRetryStatus(statusCtx, s.DB)
}

// replayItem dispatches on the item's event type. An unknown type is a
// replay failure like any other: it counts against the item's budget and is
// logged, so a poisoned row eventually freezes instead of looping forever.
func (s *RetryService) replayItem(ctx context.Context, item domain.RetryQueueItem) error {
	switch item.EventType {
	case EventTypeClick:
		return s.replayClick(ctx, item)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, item.EventType)
	}
}

// replayClick reconstructs the click event from the stored payload and
// writes it with insert-or-ignore semantics keyed on the event id.
func (s *RetryService) replayClick(ctx context.Context, item domain.RetryQueueItem) error {
	var ev domain.ClickEvent
	if err := json.Unmarshal(item.EventData, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	// Guard against malformed queue entries: required attribution must have
	// survived serialization.
	if ev.ID == "" || ev.LinkID <= 0 || ev.ProductID <= 0 {
		return fmt.Errorf("%w: missing event id or attribution", ErrMalformedPayload)
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.Clock.Now().UTC()
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
	defer cancel()
	return repo.UpsertClickEvent(writeCtx, s.DB, &ev)
}

// reschedule increments the item's retry count and pushes next_retry_at out
// by BaseBackoff * 2^count, using the incremented count as the exponent.
// Once the count reaches the item's cap the eligibility predicate freezes it
// out of future selection; no row is deleted.
func (s *RetryService) reschedule(ctx context.Context, item domain.RetryQueueItem, cause error) {
	count := item.RetryCount + 1
	next := s.Clock.Now().UTC().Add(s.BaseBackoff * time.Duration(1<<count))

	updCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
	err := repo.RescheduleRetry(updCtx, s.DB, item.ID, count, next)
	cancel()

	lg := log.Warn().
		Err(cause).
		Int64("item_id", item.ID).
		Str("event_type", item.EventType).
		Int("retry_count", count).
		Int("max_retries", item.MaxRetries)
	if err != nil {
		log.Error().Err(err).Int64("item_id", item.ID).Msg("failed to reschedule retry item")
		return
	}
	if count >= item.MaxRetries {
		lg.Msg("retry budget exhausted, item frozen")
		return
	}
	lg.Time("next_retry_at", next).Msg("replay failed, rescheduled")
}

// compact deletes processed rows older than the retention window and, when a
// dead-item retention is configured, dead rows past theirs. Compaction
// failures are logged but never fail the run.
func (s *RetryService) compact(ctx context.Context) {
	now := s.Clock.Now().UTC()

	delCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
	n, err := repo.DeleteProcessedBefore(delCtx, s.DB, now.Add(-s.QueueRetention))
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("retry queue compaction failed")
	} else if n > 0 {
		compacted.Add(float64(n))
		log.Info().Int64("deleted", n).Msg("compacted processed retry items")
	}

	if s.DeadItemRetention > 0 {
		delCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
		n, err := repo.DeleteDeadBefore(delCtx, s.DB, now.Add(-s.DeadItemRetention))
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("dead item cleanup failed")
		} else if n > 0 {
			log.Info().Int64("deleted", n).Msg("removed expired dead retry items")
		}
	}
}

// updateDepthGauges refreshes the queue depth metrics; best effort.
func (s *RetryService) updateDepthGauges(ctx context.Context) {
	st, err := s.Status(ctx)
	if err != nil {
		return
	}
	queueDepth.WithLabelValues("pending").Set(float64(st.PendingItems))
	queueDepth.WithLabelValues("processed").Set(float64(st.ProcessedItems))
	queueDepth.WithLabelValues("failed").Set(float64(st.FailedItems))
}
