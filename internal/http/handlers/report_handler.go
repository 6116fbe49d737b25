// Analytics HTTP handlers.
//
// This file exposes the read-only reporting endpoints consumed by the admin
// dashboard:
//   - GET /analytics/summary      (headline numbers for a range)
//   - GET /analytics/breakdown    (top labels for one dimension)
//   - GET /analytics/timeseries   (bucketed click series)
//   - GET /analytics/top-products (most clicked products)
//   - GET /analytics/export       (CSV download of raw events)
//
// Range parameters are RFC 3339 timestamps ("from", "to"); both are optional
// and default to the trailing 30 days.
package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-affiliate-backend/internal/repo"
	"github.com/tbourn/go-affiliate-backend/internal/services"
	"github.com/tbourn/go-affiliate-backend/internal/utils"
)

// ReportService defines the analytics read operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ReportService interface {
	// Summary returns the headline click numbers for [from, to).
	Summary(ctx context.Context, from, to time.Time) (*repo.ClickSummary, error)
	// Breakdown groups clicks by a supported dimension.
	Breakdown(ctx context.Context, dim string, from, to time.Time, limit int) ([]repo.BreakdownRow, error)
	// Series returns the bucketed click series for the range.
	Series(ctx context.Context, from, to time.Time) (*services.Timeseries, error)
	// TopProducts returns the most clicked products in the range.
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repo.ProductClicks, error)
	// ExportCSV writes raw events for the range to w as CSV.
	ExportCSV(ctx context.Context, w io.Writer, from, to time.Time) error
}

// maxReportRows caps the "limit" parameter of breakdown and top-products.
const maxReportRows = 100

// parseRange reads optional "from"/"to" RFC 3339 query parameters. Zero
// values are returned for absent parameters; the service applies defaults.
// The boolean result is false when a parameter is present but unparseable.
func parseRange(c *gin.Context) (from, to time.Time, ok bool) {
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, false
		}
		to = t
	}
	return from, to, true
}

// AnalyticsSummary godoc
// @ID          analyticsSummary
// @Summary     Click summary for a date range
// @Description Total clicks, unique links/products, success rate, and average
// @Description redirect time for the requested range.
// @Tags        Analytics
// @Produce     json
//
// @Param       from  query  string  false "Range start (RFC 3339)" example(2025-07-01T00:00:00Z)
// @Param       to    query  string  false "Range end (RFC 3339)"   example(2025-08-01T00:00:00Z)
//
// @Success     200  {object} repo.ClickSummary
// @Failure     400  {object} handlers.ErrorResponse "Bad range"
// @Failure     500  {object} handlers.ErrorResponse "Query error"
// @Router      /analytics/summary [get]
func (h *Handlers) AnalyticsSummary(c *gin.Context) {
	from, to, okRange := parseRange(c)
	if !okRange {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from/to must be RFC 3339 timestamps")
		return
	}

	sum, err := h.reportSvc.Summary(c.Request.Context(), from, to)
	if err != nil {
		if err == services.ErrInvalidRange {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}

// AnalyticsBreakdown godoc
// @ID          analyticsBreakdown
// @Summary     Click breakdown by dimension
// @Description Groups clicks by device, browser, country, or a UTM field and
// @Description returns the top labels by count.
// @Tags        Analytics
// @Produce     json
//
// @Param       dim    query  string  true  "Dimension"  Enums(device, browser, country, utm_source, utm_medium, utm_campaign)
// @Param       from   query  string  false "Range start (RFC 3339)"
// @Param       to     query  string  false "Range end (RFC 3339)"
// @Param       limit  query  int     false "Max rows"   default(10)
//
// @Success     200  {array}  repo.BreakdownRow
// @Failure     400  {object} handlers.ErrorResponse "Bad dimension or range"
// @Failure     500  {object} handlers.ErrorResponse "Query error"
// @Router      /analytics/breakdown [get]
func (h *Handlers) AnalyticsBreakdown(c *gin.Context) {
	from, to, okRange := parseRange(c)
	if !okRange {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from/to must be RFC 3339 timestamps")
		return
	}
	limit := utils.LimitParam(c.Query("limit"), 10, maxReportRows)

	rows, err := h.reportSvc.Breakdown(c.Request.Context(), c.Query("dim"), from, to, limit)
	if err != nil {
		switch err {
		case services.ErrInvalidDimension, services.ErrInvalidRange:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, rows)
}

// AnalyticsTimeseries godoc
// @ID          analyticsTimeseries
// @Summary     Bucketed click series
// @Description Returns click counts over time. Bucket width follows the range
// @Description length: hourly up to 48h, daily up to 60 days, weekly beyond.
// @Tags        Analytics
// @Produce     json
//
// @Param       from  query  string  false "Range start (RFC 3339)"
// @Param       to    query  string  false "Range end (RFC 3339)"
//
// @Success     200  {object} services.Timeseries
// @Failure     400  {object} handlers.ErrorResponse "Bad range"
// @Failure     500  {object} handlers.ErrorResponse "Query error"
// @Router      /analytics/timeseries [get]
func (h *Handlers) AnalyticsTimeseries(c *gin.Context) {
	from, to, okRange := parseRange(c)
	if !okRange {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from/to must be RFC 3339 timestamps")
		return
	}

	series, err := h.reportSvc.Series(c.Request.Context(), from, to)
	if err != nil {
		if err == services.ErrInvalidRange {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, series)
}

// AnalyticsTopProducts godoc
// @ID          analyticsTopProducts
// @Summary     Most clicked products
// @Description Joins clicks with product metadata and returns the top products
// @Description by click count in the range.
// @Tags        Analytics
// @Produce     json
//
// @Param       from   query  string  false "Range start (RFC 3339)"
// @Param       to     query  string  false "Range end (RFC 3339)"
// @Param       limit  query  int     false "Max rows"  default(10)
//
// @Success     200  {array}  repo.ProductClicks
// @Failure     400  {object} handlers.ErrorResponse "Bad range"
// @Failure     500  {object} handlers.ErrorResponse "Query error"
// @Router      /analytics/top-products [get]
func (h *Handlers) AnalyticsTopProducts(c *gin.Context) {
	from, to, okRange := parseRange(c)
	if !okRange {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from/to must be RFC 3339 timestamps")
		return
	}
	limit := utils.LimitParam(c.Query("limit"), 10, maxReportRows)

	rows, err := h.reportSvc.TopProducts(c.Request.Context(), from, to, limit)
	if err != nil {
		if err == services.ErrInvalidRange {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, rows)
}

// AnalyticsExport godoc
// @ID          analyticsExport
// @Summary     Export click events as CSV
// @Description Streams the raw click events for the range as a CSV download.
// @Tags        Analytics
// @Produce     text/csv
//
// @Param       from  query  string  false "Range start (RFC 3339)"
// @Param       to    query  string  false "Range end (RFC 3339)"
//
// @Success     200  {string} string "CSV body"
// @Failure     400  {object} handlers.ErrorResponse "Bad range"
// @Failure     500  {object} handlers.ErrorResponse "Query error"
// @Router      /analytics/export [get]
func (h *Handlers) AnalyticsExport(c *gin.Context) {
	from, to, okRange := parseRange(c)
	if !okRange {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from/to must be RFC 3339 timestamps")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="click-events.csv"`)
	if err := h.reportSvc.ExportCSV(c.Request.Context(), c.Writer, from, to); err != nil {
		if err == services.ErrInvalidRange {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		// Headers may already be written; log via the fail helper regardless.
		fail(c, http.StatusInternalServerError, ErrCodeReportFailed, err.Error())
		return
	}
}
