package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-affiliate-backend/internal/repo"
	"github.com/tbourn/go-affiliate-backend/internal/services"
)

func newReportRouter(report stubReportSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(stubTrackSvc{}, stubRetrySvc{}, report)

	r := gin.New()
	r.GET("/analytics/summary", h.AnalyticsSummary)
	r.GET("/analytics/breakdown", h.AnalyticsBreakdown)
	r.GET("/analytics/timeseries", h.AnalyticsTimeseries)
	r.GET("/analytics/top-products", h.AnalyticsTopProducts)
	r.GET("/analytics/export", h.AnalyticsExport)
	return r
}

func TestAnalytics_BadRangeParam(t *testing.T) {
	r := newReportRouter(stubReportSvc{})

	for _, path := range []string{
		"/analytics/summary?from=yesterday",
		"/analytics/breakdown?dim=device&to=not-a-time",
		"/analytics/timeseries?from=2025-13-99",
		"/analytics/top-products?to=xxx",
		"/analytics/export?from=1234",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestAnalyticsSummary_ParsesRangeAndReturnsBody(t *testing.T) {
	var gotFrom, gotTo time.Time
	report := stubReportSvc{summary: func(ctx context.Context, from, to time.Time) (*repo.ClickSummary, error) {
		gotFrom, gotTo = from, to
		return &repo.ClickSummary{TotalClicks: 12, UniqueLinks: 3}, nil
	}}
	r := newReportRouter(report)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/summary?from=2025-07-01T00:00:00Z&to=2025-08-01T00:00:00Z", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotFrom.IsZero() || gotTo.IsZero() {
		t.Fatalf("range not parsed: from=%v to=%v", gotFrom, gotTo)
	}
	var sum repo.ClickSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("json: %v", err)
	}
	if sum.TotalClicks != 12 || sum.UniqueLinks != 3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestAnalyticsSummary_OmittedRangeStaysZero(t *testing.T) {
	report := stubReportSvc{summary: func(ctx context.Context, from, to time.Time) (*repo.ClickSummary, error) {
		// Defaults are a service concern; the handler passes zero values.
		if !from.IsZero() || !to.IsZero() {
			t.Fatalf("expected zero bounds, got from=%v to=%v", from, to)
		}
		return &repo.ClickSummary{}, nil
	}}
	r := newReportRouter(report)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/summary", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestAnalyticsBreakdown_DimensionAndLimit(t *testing.T) {
	var gotDim string
	var gotLimit int
	report := stubReportSvc{breakdown: func(ctx context.Context, dim string, from, to time.Time, limit int) ([]repo.BreakdownRow, error) {
		gotDim, gotLimit = dim, limit
		return []repo.BreakdownRow{{Label: "Mobile", Clicks: 5}}, nil
	}}
	r := newReportRouter(report)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/breakdown?dim=device&limit=3", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotDim != "device" || gotLimit != 3 {
		t.Fatalf("params not passed: dim=%q limit=%d", gotDim, gotLimit)
	}
	var rows []repo.BreakdownRow
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(rows) != 1 || rows[0].Label != "Mobile" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestAnalyticsBreakdown_InvalidDimension400(t *testing.T) {
	report := stubReportSvc{breakdown: func(ctx context.Context, dim string, from, to time.Time, limit int) ([]repo.BreakdownRow, error) {
		return nil, services.ErrInvalidDimension
	}}
	r := newReportRouter(report)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/breakdown?dim=nope", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeBadRequest {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestAnalyticsTimeseries(t *testing.T) {
	report := stubReportSvc{series: func(ctx context.Context, from, to time.Time) (*services.Timeseries, error) {
		return &services.Timeseries{Bucket: "day", Points: []repo.SeriesPoint{{Bucket: "2025-08-01", Clicks: 4}}}, nil
	}}
	r := newReportRouter(report)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/timeseries", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var ts services.Timeseries
	if err := json.Unmarshal(w.Body.Bytes(), &ts); err != nil {
		t.Fatalf("json: %v", err)
	}
	if ts.Bucket != "day" || len(ts.Points) != 1 || ts.Points[0].Clicks != 4 {
		t.Fatalf("unexpected series: %+v", ts)
	}
}

func TestAnalyticsTopProducts_QueryError500(t *testing.T) {
	report := stubReportSvc{topProducts: func(ctx context.Context, from, to time.Time, limit int) ([]repo.ProductClicks, error) {
		return nil, fmt.Errorf("db down")
	}}
	r := newReportRouter(report)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/top-products", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeReportFailed {
		t.Fatalf("code=%q, want %q", er.Code, ErrCodeReportFailed)
	}
}

func TestAnalyticsExport_SetsDownloadHeaders(t *testing.T) {
	report := stubReportSvc{exportCSV: func(ctx context.Context, w io.Writer, from, to time.Time) error {
		_, err := io.WriteString(w, "id,link_id\ne1,42\n")
		return err
	}}
	r := newReportRouter(report)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/export", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "click-events.csv") {
		t.Fatalf("content disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "e1,42") {
		t.Fatalf("body = %q", w.Body.String())
	}
}
