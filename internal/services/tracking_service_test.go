package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-affiliate-backend/internal/domain"
)

// test DB helper
func newTrackingDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("tracking_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

var trackingTestTime = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestTrackingService(db *gorm.DB) (*TrackingService, *clockwork.FakeClock) {
	clk := clockwork.NewFakeClockAt(trackingTestTime)
	return NewTrackingService(db, clk, 3, time.Minute, 5*time.Second), clk
}

func TestTrackClick_StoresNormalizedEvent(t *testing.T) {
	db := newTrackingDB(t, &domain.ClickEvent{}, &domain.RetryQueueItem{})
	svc, _ := newTestTrackingService(db)

	ms := int64(118)
	res, err := svc.TrackClick(context.Background(), TrackClickInput{
		LinkID:     42,
		ProductID:  7,
		PagePath:   "  /reviews/best-headphones  ",
		Referrer:   "https://www.google.com/",
		UtmSource:  "newsletter",
		Device:     "  mobile ",
		Country:    "", // absent context stays NULL
		RedirectMs: &ms,
	})
	if err != nil {
		t.Fatalf("TrackClick: %v", err)
	}
	if res.EventID == "" {
		t.Fatalf("expected generated event id")
	}
	if res.Queued {
		t.Fatalf("direct write should not be queued")
	}

	var ev domain.ClickEvent
	if err := db.First(&ev, "id = ?", res.EventID).Error; err != nil {
		t.Fatalf("event not stored: %v", err)
	}
	if ev.LinkID != 42 || ev.ProductID != 7 {
		t.Fatalf("attribution mismatch: %+v", ev)
	}
	if ev.PagePath == nil || *ev.PagePath != "/reviews/best-headphones" {
		t.Fatalf("page path not trimmed: %v", ev.PagePath)
	}
	if ev.Device == nil || *ev.Device != "mobile" {
		t.Fatalf("device not trimmed: %v", ev.Device)
	}
	if ev.Country != nil {
		t.Fatalf("empty context field must be NULL, got %v", *ev.Country)
	}
	if !ev.Success {
		t.Fatalf("success must default to true")
	}
	if !ev.CreatedAt.Equal(trackingTestTime) {
		t.Fatalf("created_at = %v, want clock time %v", ev.CreatedAt, trackingTestTime)
	}

	// The queue stays empty on the happy path.
	var queued int64
	db.Model(&domain.RetryQueueItem{}).Count(&queued)
	if queued != 0 {
		t.Fatalf("no queue item expected, got %d", queued)
	}
}

func TestTrackClick_PreservesSuppliedEventID(t *testing.T) {
	db := newTrackingDB(t, &domain.ClickEvent{}, &domain.RetryQueueItem{})
	svc, _ := newTestTrackingService(db)

	res, err := svc.TrackClick(context.Background(), TrackClickInput{
		EventID:   "141add05-4415-4938-b5a1-17e0d3171aff",
		LinkID:    1,
		ProductID: 1,
	})
	if err != nil {
		t.Fatalf("TrackClick: %v", err)
	}
	if res.EventID != "141add05-4415-4938-b5a1-17e0d3171aff" {
		t.Fatalf("supplied event id must be kept, got %q", res.EventID)
	}
}

func TestTrackClick_ValidationErrors(t *testing.T) {
	db := newTrackingDB(t, &domain.ClickEvent{}, &domain.RetryQueueItem{})
	svc, _ := newTestTrackingService(db)

	neg := int64(-1)
	tests := []struct {
		name string
		in   TrackClickInput
		want error
	}{
		{"zero_link", TrackClickInput{LinkID: 0, ProductID: 1}, ErrInvalidLinkID},
		{"negative_link", TrackClickInput{LinkID: -5, ProductID: 1}, ErrInvalidLinkID},
		{"zero_product", TrackClickInput{LinkID: 1, ProductID: 0}, ErrInvalidProductID},
		{"negative_redirect", TrackClickInput{LinkID: 1, ProductID: 1, RedirectMs: &neg}, ErrNegativeRedirect},
		{"relative_page_path", TrackClickInput{LinkID: 1, ProductID: 1, PagePath: "reviews/x"}, ErrInvalidPagePath},
		{"overlong_page_path", TrackClickInput{LinkID: 1, ProductID: 1, PagePath: "/" + strings.Repeat("a", 501)}, ErrInvalidPagePath},
		{"schemeless_referrer", TrackClickInput{LinkID: 1, ProductID: 1, Referrer: "www.google.com"}, ErrInvalidReferrer},
		{"hostless_referrer", TrackClickInput{LinkID: 1, ProductID: 1, Referrer: "https://"}, ErrInvalidReferrer},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.TrackClick(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	// Nothing may be persisted anywhere on a validation failure.
	var events, queued int64
	db.Model(&domain.ClickEvent{}).Count(&events)
	db.Model(&domain.RetryQueueItem{}).Count(&queued)
	if events != 0 || queued != 0 {
		t.Fatalf("validation failures must leave no rows: events=%d queued=%d", events, queued)
	}
}

func TestTrackClick_FallsBackToQueueOnStoreFailure(t *testing.T) {
	db := newTrackingDB(t, &domain.ClickEvent{}, &domain.RetryQueueItem{})
	svc, _ := newTestTrackingService(db)

	// Simulate an unavailable event store.
	if err := db.Migrator().DropTable(&domain.ClickEvent{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	res, err := svc.TrackClick(context.Background(), TrackClickInput{LinkID: 42, ProductID: 7})
	if err != nil {
		t.Fatalf("fallback path must still succeed, got %v", err)
	}
	if !res.Queued {
		t.Fatalf("expected queued result")
	}

	var item domain.RetryQueueItem
	if err := db.First(&item).Error; err != nil {
		t.Fatalf("queue item not found: %v", err)
	}
	if item.EventType != EventTypeClick {
		t.Fatalf("event type = %q, want %q", item.EventType, EventTypeClick)
	}
	if item.RetryCount != 0 || item.MaxRetries != 3 || item.ProcessedAt != nil {
		t.Fatalf("bookkeeping not zeroed: %+v", item)
	}
	wantDue := trackingTestTime.Add(time.Minute)
	if item.NextRetryAt.Sub(wantDue).Abs() > time.Second {
		t.Fatalf("next_retry_at = %v, want ~%v", item.NextRetryAt, wantDue)
	}
	if !strings.Contains(string(item.EventData), res.EventID) {
		t.Fatalf("payload must carry the event id: %s", item.EventData)
	}
}

func TestTrackClick_QueueUnavailable(t *testing.T) {
	db := newTrackingDB(t) // no tables at all
	svc, _ := newTestTrackingService(db)

	_, err := svc.TrackClick(context.Background(), TrackClickInput{LinkID: 1, ProductID: 1})
	if !errors.Is(err, ErrQueueUnavailable) {
		t.Fatalf("err = %v, want ErrQueueUnavailable", err)
	}
}

func TestOptional(t *testing.T) {
	if optional("") != nil || optional("   ") != nil {
		t.Fatalf("blank strings must map to nil")
	}
	if p := optional("  x "); p == nil || *p != "x" {
		t.Fatalf("optional should trim, got %v", p)
	}
}
