// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// analytics endpoints: click totals, dimensional breakdowns, and
// time-bucketed series. Every query is parameterized; filter values are
// never concatenated into SQL.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-affiliate-backend/internal/domain"
)

// ClickSummary holds the headline numbers for a date range.
type ClickSummary struct {
	TotalClicks    int64    `json:"total_clicks"`
	UniqueLinks    int64    `json:"unique_links"`
	UniqueProducts int64    `json:"unique_products"`
	SuccessRate    float64  `json:"success_rate"`
	AvgRedirectMs  *float64 `json:"avg_redirect_ms,omitempty"`
}

// BreakdownRow is one label/count pair of a dimensional breakdown.
type BreakdownRow struct {
	Label  string `json:"label"`
	Clicks int64  `json:"clicks"`
}

// SeriesPoint is one bucket of a time series.
type SeriesPoint struct {
	Bucket string `json:"bucket"`
	Clicks int64  `json:"clicks"`
}

// breakdownColumns whitelists the dimensions callers may group by. Grouping
// by a caller-chosen column name is the one place dynamic SQL is unavoidable,
// so the column must come from this map, never from the request.
var breakdownColumns = map[string]string{
	"device":       "device",
	"browser":      "browser",
	"country":      "country",
	"utm_source":   "utm_source",
	"utm_medium":   "utm_medium",
	"utm_campaign": "utm_campaign",
}

// IsBreakdownDimension reports whether dim is a supported breakdown column.
func IsBreakdownDimension(dim string) bool {
	_, ok := breakdownColumns[dim]
	return ok
}

// ClickSummaryRange computes the summary numbers for clicks in [from, to).
func ClickSummaryRange(ctx context.Context, db *gorm.DB, from, to time.Time) (*ClickSummary, error) {
	var row struct {
		Total      int64
		Links      int64
		Products   int64
		Successes  int64
		AvgMs      *float64
		WithTiming int64
	}
	err := db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*)                                   AS total,
			COUNT(DISTINCT link_id)                    AS links,
			COUNT(DISTINCT product_id)                 AS products,
			SUM(CASE WHEN success THEN 1 ELSE 0 END)   AS successes,
			AVG(redirect_ms)                           AS avg_ms,
			COUNT(redirect_ms)                         AS with_timing
		FROM click_events
		WHERE created_at >= ? AND created_at < ?`, from, to).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	sum := &ClickSummary{
		TotalClicks:    row.Total,
		UniqueLinks:    row.Links,
		UniqueProducts: row.Products,
	}
	if row.Total > 0 {
		sum.SuccessRate = float64(row.Successes) / float64(row.Total)
	}
	if row.WithTiming > 0 {
		sum.AvgRedirectMs = row.AvgMs
	}
	return sum, nil
}

// ClickBreakdown groups clicks in [from, to) by a whitelisted dimension and
// returns the top rows by count. NULL labels (context never captured) are
// excluded; they carry no signal for dashboards.
func ClickBreakdown(ctx context.Context, db *gorm.DB, dim string, from, to time.Time, limit int) ([]BreakdownRow, error) {
	col, ok := breakdownColumns[dim]
	if !ok {
		return nil, fmt.Errorf("unsupported breakdown dimension %q", dim)
	}
	if limit <= 0 {
		limit = 10
	}

	var out []BreakdownRow
	err := db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT %s AS label, COUNT(*) AS clicks
		FROM click_events
		WHERE created_at >= ? AND created_at < ? AND %s IS NOT NULL
		GROUP BY %s
		ORDER BY clicks DESC, label ASC
		LIMIT ?`, col, col, col), from, to, limit).
		Scan(&out).Error
	return out, err
}

// ClickSeries buckets clicks in [from, to) using the given SQLite strftime
// layout ("%Y-%m-%d %H:00" for hourly, "%Y-%m-%d" for daily, "%Y-%W" for
// weekly). The bucket format is chosen by the service from the range length.
func ClickSeries(ctx context.Context, db *gorm.DB, bucketFormat string, from, to time.Time) ([]SeriesPoint, error) {
	var out []SeriesPoint
	err := db.WithContext(ctx).Raw(`
		SELECT strftime(?, created_at) AS bucket, COUNT(*) AS clicks
		FROM click_events
		WHERE created_at >= ? AND created_at < ?
		GROUP BY bucket
		ORDER BY bucket ASC`, bucketFormat, from, to).
		Scan(&out).Error
	return out, err
}

// TopProducts joins clicks against product metadata and returns the most
// clicked products in [from, to).
type ProductClicks struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	Clicks    int64  `json:"clicks"`
}

// TopProductsRange returns the products with the most clicks in the range.
// Products missing from the metadata table still appear, with an empty name.
func TopProductsRange(ctx context.Context, db *gorm.DB, from, to time.Time, limit int) ([]ProductClicks, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []ProductClicks
	err := db.WithContext(ctx).Raw(`
		SELECT
			ce.product_id               AS product_id,
			COALESCE(p.name, '')        AS name,
			COALESCE(p.brand, '')       AS brand,
			COUNT(*)                    AS clicks
		FROM click_events ce
		LEFT JOIN products p ON p.id = ce.product_id
		WHERE ce.created_at >= ? AND ce.created_at < ?
		GROUP BY ce.product_id
		ORDER BY clicks DESC, ce.product_id ASC
		LIMIT ?`, from, to, limit).
		Scan(&out).Error
	return out, err
}

// ListClickEventsRange streams click events for CSV export, oldest first.
// Export sizes are bounded by the caller-supplied limit.
func ListClickEventsRange(ctx context.Context, db *gorm.DB, from, to time.Time, limit int) ([]domain.ClickEvent, error) {
	var out []domain.ClickEvent
	q := db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
