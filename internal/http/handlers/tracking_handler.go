// Click tracking HTTP handlers.
//
// This file exposes the ingestion side of the click pipeline:
//   - POST /track-click               (record a click, fire-and-forget)
//   - POST /trigger-retry-processing  (debug: run one processor pass)
//   - GET  /retry-queue-status        (queue bucket counts)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Note that /track-click reports
// success even when the event store write failed and the click was queued:
// tracking must never fail the user-facing redirect flow.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-affiliate-backend/internal/repo"
	"github.com/tbourn/go-affiliate-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// TrackingService defines the click ingestion operation consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TrackingService interface {
	// TrackClick validates and records a click, falling back to the retry
	// queue when the event store is unavailable.
	TrackClick(ctx context.Context, in services.TrackClickInput) (*services.TrackClickResult, error)
}

// RetryService defines the retry queue operations consumed by HTTP handlers.
type RetryService interface {
	// ProcessRetryQueue runs one processor pass and reports counts.
	ProcessRetryQueue(ctx context.Context) (*services.RunReport, error)
	// Status returns the pending/processed/failed bucket counts.
	Status(ctx context.Context) (*repo.RetryQueueStatus, error)
}

//
// DTOs
//

// TrackClickRequest is the JSON payload for recording a click.
type TrackClickRequest struct {
	// EventID optionally replays a known event id (idempotent retry).
	EventID string `json:"eventId,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`

	LinkID    int64  `json:"linkId" binding:"required" example:"42"`
	ProductID int64  `json:"productId" binding:"required" example:"7"`
	ContentID *int64 `json:"contentId,omitempty" example:"3"`
	PickID    *int64 `json:"pickId,omitempty"`
	VariantID *int64 `json:"variantId,omitempty"`

	PagePath    string `json:"pagePath,omitempty" example:"/reviews/best-headphones"`
	Referrer    string `json:"referrer,omitempty" example:"https://www.google.com/"`
	UtmSource   string `json:"utmSource,omitempty" example:"newsletter"`
	UtmMedium   string `json:"utmMedium,omitempty" example:"email"`
	UtmCampaign string `json:"utmCampaign,omitempty" example:"spring-sale"`
	UtmTerm     string `json:"utmTerm,omitempty"`
	UtmContent  string `json:"utmContent,omitempty"`
	Device      string `json:"device,omitempty" example:"mobile"`
	Browser     string `json:"browser,omitempty" example:"safari"`
	Country     string `json:"country,omitempty" example:"DE"`

	RedirectMs *int64 `json:"redirectMs,omitempty" example:"118"`
	Success    *bool  `json:"success,omitempty"`
}

// TrackClickResponse acknowledges an accepted click.
type TrackClickResponse struct {
	EventID string `json:"eventId" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Success bool   `json:"success" example:"true"`
}

// TriggerRetryResponse reports the outcome of a manual processor pass.
type TriggerRetryResponse struct {
	Message string `json:"message" example:"retry processing complete: 3 processed, 1 failed"`
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for tracking, retry management, and
// analytics. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	trackSvc  TrackingService
	retrySvc  RetryService
	reportSvc ReportService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(trackSvc TrackingService, retrySvc RetryService, reportSvc ReportService) *Handlers {
	return &Handlers{trackSvc: trackSvc, retrySvc: retrySvc, reportSvc: reportSvc}
}

//
// Handlers
//

// TrackClick godoc
// @ID          trackClick
// @Summary     Record an affiliate link click
// @Description Validates and records a click event. The call succeeds as soon as the click
// @Description is accepted for processing; a transient store failure is absorbed by the
// @Description internal retry queue and still reported as success.
// @Tags        Tracking
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.TrackClickRequest  true  "Click payload"
//
// @Success     200  {object}  handlers.TrackClickResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     500  {object}  handlers.ErrorResponse  "No durable fallback available"
// @Router      /track-click [post]
func (h *Handlers) TrackClick(c *gin.Context) {
	var req TrackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.trackSvc.TrackClick(c.Request.Context(), services.TrackClickInput{
		EventID:     req.EventID,
		LinkID:      req.LinkID,
		ProductID:   req.ProductID,
		ContentID:   req.ContentID,
		PickID:      req.PickID,
		VariantID:   req.VariantID,
		PagePath:    req.PagePath,
		Referrer:    req.Referrer,
		UtmSource:   req.UtmSource,
		UtmMedium:   req.UtmMedium,
		UtmCampaign: req.UtmCampaign,
		UtmTerm:     req.UtmTerm,
		UtmContent:  req.UtmContent,
		Device:      req.Device,
		Browser:     req.Browser,
		Country:     req.Country,
		RedirectMs:  req.RedirectMs,
		Success:     req.Success,
	})
	if err != nil {
		switch err {
		case services.ErrInvalidLinkID,
			services.ErrInvalidProductID,
			services.ErrNegativeRedirect,
			services.ErrInvalidPagePath,
			services.ErrInvalidReferrer:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case services.ErrQueueUnavailable:
			fail(c, http.StatusInternalServerError, ErrCodeTrackFailed, "click could not be recorded")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeTrackFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, TrackClickResponse{EventID: res.EventID, Success: true})
}

// ProcessRetryQueue godoc
// @ID          processRetryQueue
// @Summary     Run one retry processor pass (internal)
// @Description Drains due retry queue items once. Intended for internal schedulers;
// @Description returns no body.
// @Tags        Retry
//
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Processor error"
// @Router      /analytics/retry-queue/process [post]
func (h *Handlers) ProcessRetryQueue(c *gin.Context) {
	if _, err := h.retrySvc.ProcessRetryQueue(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// TriggerRetryProcessing godoc
// @ID          triggerRetryProcessing
// @Summary     Run one retry processor pass (debug)
// @Description Synchronously runs a processor pass and reports the counts in a
// @Description human-readable message.
// @Tags        Retry
// @Produce     json
//
// @Success     200  {object} handlers.TriggerRetryResponse
// @Failure     500  {object} handlers.ErrorResponse "Processor error"
// @Router      /trigger-retry-processing [post]
func (h *Handlers) TriggerRetryProcessing(c *gin.Context) {
	report, err := h.retrySvc.ProcessRetryQueue(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, TriggerRetryResponse{
		Message: retryMessage(report),
	})
}

// RetryQueueStatus godoc
// @ID          retryQueueStatus
// @Summary     Retry queue bucket counts
// @Description Reports how many queue items are pending, processed, and permanently
// @Description failed. The three buckets partition the queue.
// @Tags        Retry
// @Produce     json
//
// @Success     200  {object} repo.RetryQueueStatus
// @Failure     500  {object} handlers.ErrorResponse "Query error"
// @Router      /retry-queue-status [get]
func (h *Handlers) RetryQueueStatus(c *gin.Context) {
	st, err := h.retrySvc.Status(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatusFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, st)
}

// retryMessage renders a RunReport as the debug endpoint's message string.
func retryMessage(r *services.RunReport) string {
	return fmt.Sprintf("retry processing complete: %d processed, %d failed", r.Processed, r.Failed)
}
