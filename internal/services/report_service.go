// Package services – ReportService
//
// This file implements ReportService, the read-only analytics layer over the
// event store. It produces the dashboard numbers: range summaries,
// dimensional breakdowns, time-bucketed series (bucket width chosen from the
// range length), top products, and a CSV export of raw events. All methods
// are stateless, idempotent reads with no special failure semantics.
package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-affiliate-backend/internal/domain"
	"github.com/tbourn/go-affiliate-backend/internal/repo"
)

// Time-bucket widths for the click series, chosen from the range length.
const (
	bucketHour = "hour"
	bucketDay  = "day"
	bucketWeek = "week"

	hourlyMaxRange = 48 * time.Hour
	dailyMaxRange  = 60 * 24 * time.Hour

	defaultReportRange = 30 * 24 * time.Hour
	maxExportRows      = 50000
)

// SQLite strftime layouts per bucket width.
var bucketFormats = map[string]string{
	bucketHour: "%Y-%m-%d %H:00",
	bucketDay:  "%Y-%m-%d",
	bucketWeek: "%Y-W%W",
}

// ReportService exposes the aggregate read paths consumed by dashboards.
type ReportService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
}

// NewReportService constructs a ReportService bound to db.
func NewReportService(db *gorm.DB, clock clockwork.Clock) *ReportService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ReportService{DB: db, Clock: clock}
}

// Timeseries is a bucketed click series plus the bucket width used.
type Timeseries struct {
	Bucket string             `json:"bucket"`
	Points []repo.SeriesPoint `json:"points"`
}

// Summary returns the headline click numbers for [from, to).
// Zero bounds default to the trailing 30 days.
func (s *ReportService) Summary(ctx context.Context, from, to time.Time) (*repo.ClickSummary, error) {
	from, to, err := s.normalizeRange(from, to)
	if err != nil {
		return nil, err
	}

	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Summary",
		trace.WithAttributes(attribute.String("range.from", from.Format(time.RFC3339))),
	)
	defer span.End()

	return repo.ClickSummaryRange(ctx, s.DB, from, to)
}

// Breakdown groups clicks by a supported dimension and returns the top rows.
// Labels are title-cased for display; grouping happens on the stored value.
func (s *ReportService) Breakdown(ctx context.Context, dim string, from, to time.Time, limit int) ([]repo.BreakdownRow, error) {
	if !repo.IsBreakdownDimension(dim) {
		return nil, ErrInvalidDimension
	}
	from, to, err := s.normalizeRange(from, to)
	if err != nil {
		return nil, err
	}

	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Breakdown",
		trace.WithAttributes(attribute.String("dimension", dim)),
	)
	defer span.End()

	rows, err := repo.ClickBreakdown(ctx, s.DB, dim, from, to, limit)
	if err != nil {
		return nil, err
	}

	caser := cases.Title(language.English)
	return lo.Map(rows, func(r repo.BreakdownRow, _ int) repo.BreakdownRow {
		r.Label = caser.String(r.Label)
		return r
	}), nil
}

// Series returns the click counts bucketed over [from, to). The bucket width
// follows the range length: up to 48h hourly, up to 60 days daily, weekly
// beyond that.
func (s *ReportService) Series(ctx context.Context, from, to time.Time) (*Timeseries, error) {
	from, to, err := s.normalizeRange(from, to)
	if err != nil {
		return nil, err
	}

	bucket := bucketWeek
	switch span := to.Sub(from); {
	case span <= hourlyMaxRange:
		bucket = bucketHour
	case span <= dailyMaxRange:
		bucket = bucketDay
	}

	tr := otel.Tracer("services/ReportService")
	ctx, otelSpan := tr.Start(ctx, "Series",
		trace.WithAttributes(attribute.String("bucket", bucket)),
	)
	defer otelSpan.End()

	points, err := repo.ClickSeries(ctx, s.DB, bucketFormats[bucket], from, to)
	if err != nil {
		return nil, err
	}
	return &Timeseries{Bucket: bucket, Points: points}, nil
}

// TopProducts returns the most-clicked products (joined with metadata) in
// the range.
func (s *ReportService) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repo.ProductClicks, error) {
	from, to, err := s.normalizeRange(from, to)
	if err != nil {
		return nil, err
	}

	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "TopProducts")
	defer span.End()

	return repo.TopProductsRange(ctx, s.DB, from, to, limit)
}

// csvHeader is the column order of the CSV export.
var csvHeader = []string{
	"id", "link_id", "product_id", "content_id", "pick_id", "variant_id",
	"page_path", "referrer", "utm_source", "utm_medium", "utm_campaign",
	"utm_term", "utm_content", "device", "browser", "country",
	"redirect_ms", "success", "created_at",
}

// ExportCSV writes the raw click events in [from, to) to w as CSV, capped at
// maxExportRows rows.
func (s *ReportService) ExportCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	from, to, err := s.normalizeRange(from, to)
	if err != nil {
		return err
	}

	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "ExportCSV")
	defer span.End()

	events, err := repo.ListClickEventsRange(ctx, s.DB, from, to, maxExportRows)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, ev := range events {
		if err := cw.Write(csvRecord(ev)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// normalizeRange applies defaults and sanity checks to a requested range:
// a zero "to" means now, a zero "from" means 30 days before "to", and an
// inverted range is rejected.
func (s *ReportService) normalizeRange(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.Clock.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultReportRange)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	return from, to, nil
}

// csvRecord flattens one event to CSV fields; optional columns render empty.
func csvRecord(ev domain.ClickEvent) []string {
	return []string{
		ev.ID,
		strconv.FormatInt(ev.LinkID, 10),
		strconv.FormatInt(ev.ProductID, 10),
		i64OrEmpty(ev.ContentID),
		i64OrEmpty(ev.PickID),
		i64OrEmpty(ev.VariantID),
		strOrEmpty(ev.PagePath),
		strOrEmpty(ev.Referrer),
		strOrEmpty(ev.UtmSource),
		strOrEmpty(ev.UtmMedium),
		strOrEmpty(ev.UtmCampaign),
		strOrEmpty(ev.UtmTerm),
		strOrEmpty(ev.UtmContent),
		strOrEmpty(ev.Device),
		strOrEmpty(ev.Browser),
		strOrEmpty(ev.Country),
		i64OrEmpty(ev.RedirectMs),
		strconv.FormatBool(ev.Success),
		ev.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func i64OrEmpty(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}
