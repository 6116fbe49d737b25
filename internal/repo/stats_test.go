package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-affiliate-backend/internal/domain"
)

func newStatsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("stats_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.ClickEvent{}, &domain.Product{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedClick(t *testing.T, db *gorm.DB, ev domain.ClickEvent) {
	t.Helper()
	if err := db.Create(&ev).Error; err != nil {
		t.Fatalf("seed click: %v", err)
	}
}

func TestClickSummaryRange(t *testing.T) {
	db := newStatsDB(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	seedClick(t, db, domain.ClickEvent{ID: "a", LinkID: 1, ProductID: 10, Success: true, RedirectMs: i64Ptr(100), CreatedAt: base.Add(time.Hour)})
	seedClick(t, db, domain.ClickEvent{ID: "b", LinkID: 1, ProductID: 10, Success: true, RedirectMs: i64Ptr(300), CreatedAt: base.Add(2 * time.Hour)})
	seedClick(t, db, domain.ClickEvent{ID: "c", LinkID: 2, ProductID: 20, Success: false, CreatedAt: base.Add(3 * time.Hour)})
	// Outside the range: ignored.
	seedClick(t, db, domain.ClickEvent{ID: "d", LinkID: 3, ProductID: 30, Success: true, CreatedAt: base.Add(-time.Hour)})

	sum, err := ClickSummaryRange(ctx, db, base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ClickSummaryRange: %v", err)
	}
	if sum.TotalClicks != 3 {
		t.Fatalf("total = %d, want 3", sum.TotalClicks)
	}
	if sum.UniqueLinks != 2 || sum.UniqueProducts != 2 {
		t.Fatalf("unique counts wrong: %+v", sum)
	}
	if sum.SuccessRate < 0.66 || sum.SuccessRate > 0.67 {
		t.Fatalf("success rate = %v, want ~2/3", sum.SuccessRate)
	}
	if sum.AvgRedirectMs == nil || *sum.AvgRedirectMs != 200 {
		t.Fatalf("avg redirect = %v, want 200", sum.AvgRedirectMs)
	}
}

func TestClickSummaryRange_Empty(t *testing.T) {
	db := newStatsDB(t)

	sum, err := ClickSummaryRange(context.Background(), db, time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("ClickSummaryRange: %v", err)
	}
	if sum.TotalClicks != 0 || sum.SuccessRate != 0 || sum.AvgRedirectMs != nil {
		t.Fatalf("empty range should zero out: %+v", sum)
	}
}

func TestClickBreakdown_CountsAndNullExclusion(t *testing.T) {
	db := newStatsDB(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	seedClick(t, db, domain.ClickEvent{ID: "a", LinkID: 1, ProductID: 1, Success: true, Device: strPtr("mobile"), CreatedAt: base})
	seedClick(t, db, domain.ClickEvent{ID: "b", LinkID: 1, ProductID: 1, Success: true, Device: strPtr("mobile"), CreatedAt: base})
	seedClick(t, db, domain.ClickEvent{ID: "c", LinkID: 1, ProductID: 1, Success: true, Device: strPtr("desktop"), CreatedAt: base})
	// NULL device: excluded from the breakdown.
	seedClick(t, db, domain.ClickEvent{ID: "d", LinkID: 1, ProductID: 1, Success: true, CreatedAt: base})

	rows, err := ClickBreakdown(ctx, db, "device", base.Add(-time.Hour), base.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("ClickBreakdown: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 labels, got %d: %+v", len(rows), rows)
	}
	if rows[0].Label != "mobile" || rows[0].Clicks != 2 {
		t.Fatalf("top row wrong: %+v", rows[0])
	}
	if rows[1].Label != "desktop" || rows[1].Clicks != 1 {
		t.Fatalf("second row wrong: %+v", rows[1])
	}
}

func TestClickBreakdown_RejectsUnknownDimension(t *testing.T) {
	db := newStatsDB(t)

	// A malicious dimension must be rejected before any SQL is built.
	_, err := ClickBreakdown(context.Background(), db, "device; DROP TABLE click_events", time.Now().Add(-time.Hour), time.Now(), 10)
	if err == nil {
		t.Fatalf("expected error for unknown dimension")
	}

	var total int64
	if err := db.Raw("SELECT COUNT(*) FROM click_events").Scan(&total).Error; err != nil {
		t.Fatalf("click_events table should still exist: %v", err)
	}
}

func TestIsBreakdownDimension(t *testing.T) {
	for _, dim := range []string{"device", "browser", "country", "utm_source", "utm_medium", "utm_campaign"} {
		if !IsBreakdownDimension(dim) {
			t.Fatalf("%q should be supported", dim)
		}
	}
	for _, dim := range []string{"", "id", "link_id", "created_at", "device "} {
		if IsBreakdownDimension(dim) {
			t.Fatalf("%q should not be supported", dim)
		}
	}
}

func TestClickSeries_TotalsAcrossBuckets(t *testing.T) {
	db := newStatsDB(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedClick(t, db, domain.ClickEvent{
			ID: fmt.Sprintf("s%d", i), LinkID: 1, ProductID: 1, Success: true,
			CreatedAt: base.Add(time.Duration(i) * 6 * time.Hour),
		})
	}

	points, err := ClickSeries(ctx, db, "%Y-%m-%d", base, base.Add(3*24*time.Hour))
	if err != nil {
		t.Fatalf("ClickSeries: %v", err)
	}
	if len(points) == 0 {
		t.Fatalf("expected at least one bucket")
	}
	var total int64
	for i, p := range points {
		total += p.Clicks
		if i > 0 && points[i-1].Bucket > p.Bucket {
			t.Fatalf("buckets not sorted: %+v", points)
		}
	}
	if total != 5 {
		t.Fatalf("bucketed totals = %d, want 5", total)
	}
}

func TestTopProductsRange_JoinsMetadata(t *testing.T) {
	db := newStatsDB(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	if err := db.Create(&domain.Product{ID: 10, Name: "Headphones", Brand: "Acme"}).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	seedClick(t, db, domain.ClickEvent{ID: "a", LinkID: 1, ProductID: 10, Success: true, CreatedAt: base})
	seedClick(t, db, domain.ClickEvent{ID: "b", LinkID: 1, ProductID: 10, Success: true, CreatedAt: base})
	// Product 20 has no metadata row: it still shows up, with an empty name.
	seedClick(t, db, domain.ClickEvent{ID: "c", LinkID: 2, ProductID: 20, Success: true, CreatedAt: base})

	rows, err := TopProductsRange(ctx, db, base.Add(-time.Hour), base.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("TopProductsRange: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 products, got %d", len(rows))
	}
	if rows[0].ProductID != 10 || rows[0].Clicks != 2 || rows[0].Name != "Headphones" || rows[0].Brand != "Acme" {
		t.Fatalf("top product wrong: %+v", rows[0])
	}
	if rows[1].ProductID != 20 || rows[1].Name != "" {
		t.Fatalf("unknown product should appear with empty name: %+v", rows[1])
	}
}

func TestListClickEventsRange_OrderAndLimit(t *testing.T) {
	db := newStatsDB(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	seedClick(t, db, domain.ClickEvent{ID: "late", LinkID: 1, ProductID: 1, Success: true, CreatedAt: base.Add(2 * time.Hour)})
	seedClick(t, db, domain.ClickEvent{ID: "early", LinkID: 1, ProductID: 1, Success: true, CreatedAt: base})

	events, err := ListClickEventsRange(ctx, db, base.Add(-time.Hour), base.Add(3*time.Hour), 0)
	if err != nil {
		t.Fatalf("ListClickEventsRange: %v", err)
	}
	if len(events) != 2 || events[0].ID != "early" || events[1].ID != "late" {
		t.Fatalf("expected oldest-first order, got %+v", events)
	}

	capped, err := ListClickEventsRange(ctx, db, base.Add(-time.Hour), base.Add(3*time.Hour), 1)
	if err != nil {
		t.Fatalf("ListClickEventsRange limit: %v", err)
	}
	if len(capped) != 1 || capped[0].ID != "early" {
		t.Fatalf("limit should keep the oldest event, got %+v", capped)
	}
}
