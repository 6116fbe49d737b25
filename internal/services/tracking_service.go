// Package services – TrackingService
//
// This file implements TrackingService, the ingestion side of the click
// pipeline. It validates and normalizes an incoming click, stamps it with an
// event id and the current time, and appends it to the event store. When the
// store write fails the click is not lost and the caller is not failed:
// the validated payload is enqueued on the durable retry queue and the call
// still reports success ("accepted for processing"). Only when that fallback
// enqueue also fails does the service surface an error.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// link/product identifiers.
package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-affiliate-backend/internal/domain"
	"github.com/tbourn/go-affiliate-backend/internal/repo"
)

// EventTypeClick tags retry queue items that carry a click event payload.
// It is currently the only event type the pipeline defines.
const EventTypeClick = "click_event"

const maxPagePathLen = 500

// TrackClickInput carries the raw (pre-validation) fields of a tracking call.
// Optional string fields use "" for absent; optional numerics use nil.
type TrackClickInput struct {
	// EventID lets a caller replay the same logical click idempotently.
	// Empty means "generate one".
	EventID string

	LinkID    int64
	ProductID int64
	ContentID *int64
	PickID    *int64
	VariantID *int64

	PagePath    string
	Referrer    string
	UtmSource   string
	UtmMedium   string
	UtmCampaign string
	UtmTerm     string
	UtmContent  string
	Device      string
	Browser     string
	Country     string

	RedirectMs *int64
	Success    *bool
}

// TrackClickResult is the outcome reported to the caller. Success is true on
// both the direct-write and queued-fallback paths; Queued distinguishes them
// for logging and metrics (it is not part of the public response).
type TrackClickResult struct {
	EventID string
	Queued  bool
}

// TrackingService validates and persists click events, falling back to the
// retry queue when the event store is unavailable.
type TrackingService struct {
	DB    *gorm.DB
	Clock clockwork.Clock

	// MaxRetries is the retry budget stamped on queued fallbacks.
	MaxRetries int
	// FirstRetryDelay is how far in the future a fresh queue item becomes due.
	FirstRetryDelay time.Duration
	// OpTimeout bounds each individual store operation so a stalled database
	// cannot hang the redirect flow.
	OpTimeout time.Duration
}

// NewTrackingService constructs a TrackingService with the given knobs,
// applying defaults for zero values (real clock, 3 retries, 1 minute first
// delay, 5 second op timeout).
func NewTrackingService(db *gorm.DB, clock clockwork.Clock, maxRetries int, firstRetryDelay, opTimeout time.Duration) *TrackingService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if firstRetryDelay <= 0 {
		firstRetryDelay = time.Minute
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &TrackingService{
		DB:              db,
		Clock:           clock,
		MaxRetries:      maxRetries,
		FirstRetryDelay: firstRetryDelay,
		OpTimeout:       opTimeout,
	}
}

// TrackClick validates in, normalizes its context fields, and records the
// click.
//
// Semantics:
//   - Validation failures return a sentinel error and leave no row anywhere.
//   - A successful event-store write returns {EventID} with Queued=false.
//   - A failed event-store write (including timeout) is absorbed: the payload
//     is enqueued for replay and the call still succeeds with Queued=true.
//   - Only a failed enqueue returns an error (ErrQueueUnavailable, wrapped).
//
// Exactly one row is appended to exactly one of the two stores per
// successful call.
func (s *TrackingService) TrackClick(ctx context.Context, in TrackClickInput) (*TrackClickResult, error) {
	tr := otel.Tracer("services/TrackingService")
	ctx, span := tr.Start(ctx, "TrackClick",
		trace.WithAttributes(
			attribute.Int64("link.id", in.LinkID),
			attribute.Int64("product.id", in.ProductID),
		),
	)
	defer span.End()

	ev, err := s.buildEvent(in)
	if err != nil {
		return nil, err
	}

	// Success path: append to the event store.
	writeCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
	err = repo.CreateClickEvent(writeCtx, s.DB, ev)
	cancel()
	if err == nil {
		clicksTracked.WithLabelValues(outcomeStored).Inc()
		return &TrackClickResult{EventID: ev.ID}, nil
	}

	// Fallback path: the write failed, but tracking must never fail the
	// user-facing redirect. Park the validated payload on the retry queue.
	log.Warn().Err(err).Str("event_id", ev.ID).Msg("click write failed, queueing for retry")

	payload, merr := json.Marshal(ev)
	if merr != nil {
		// Marshaling a plain struct should never fail; treat it like a dead
		// fallback to keep the one-loud-path contract.
		clicksTracked.WithLabelValues(outcomeLost).Inc()
		return nil, ErrQueueUnavailable
	}

	now := s.Clock.Now().UTC()
	enqCtx, cancel := context.WithTimeout(ctx, s.OpTimeout)
	_, qerr := repo.EnqueueRetry(enqCtx, s.DB, EventTypeClick, payload, s.MaxRetries, now, now.Add(s.FirstRetryDelay))
	cancel()
	if qerr != nil {
		log.Error().Err(qerr).Str("event_id", ev.ID).Msg("retry enqueue failed, click lost")
		clicksTracked.WithLabelValues(outcomeLost).Inc()
		return nil, ErrQueueUnavailable
	}

	clicksTracked.WithLabelValues(outcomeQueued).Inc()
	return &TrackClickResult{EventID: ev.ID, Queued: true}, nil
}

// buildEvent applies the validation and normalization rules and returns a
// ready-to-insert ClickEvent. It has no side effects.
func (s *TrackingService) buildEvent(in TrackClickInput) (*domain.ClickEvent, error) {
	if in.LinkID <= 0 {
		return nil, ErrInvalidLinkID
	}
	if in.ProductID <= 0 {
		return nil, ErrInvalidProductID
	}
	if in.RedirectMs != nil && *in.RedirectMs < 0 {
		return nil, ErrNegativeRedirect
	}

	pagePath := strings.TrimSpace(in.PagePath)
	if pagePath != "" {
		if !strings.HasPrefix(pagePath, "/") || utf8.RuneCountInString(pagePath) > maxPagePathLen {
			return nil, ErrInvalidPagePath
		}
	}

	referrer := strings.TrimSpace(in.Referrer)
	if referrer != "" {
		u, err := url.Parse(referrer)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, ErrInvalidReferrer
		}
	}

	id := strings.TrimSpace(in.EventID)
	if id == "" {
		id = uuid.NewString()
	}

	success := true
	if in.Success != nil {
		success = *in.Success
	}

	return &domain.ClickEvent{
		ID:          id,
		LinkID:      in.LinkID,
		ProductID:   in.ProductID,
		ContentID:   in.ContentID,
		PickID:      in.PickID,
		VariantID:   in.VariantID,
		PagePath:    optional(pagePath),
		Referrer:    optional(referrer),
		UtmSource:   optional(in.UtmSource),
		UtmMedium:   optional(in.UtmMedium),
		UtmCampaign: optional(in.UtmCampaign),
		UtmTerm:     optional(in.UtmTerm),
		UtmContent:  optional(in.UtmContent),
		Device:      optional(in.Device),
		Browser:     optional(in.Browser),
		Country:     optional(in.Country),
		RedirectMs:  in.RedirectMs,
		Success:     success,
		CreatedAt:   s.Clock.Now().UTC(),
	}, nil
}

// optional trims s and returns nil when nothing remains, so empty context
// fields are stored as NULL rather than "".
func optional(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
