// Error codes carried by the ErrorResponse envelope. The strings are part of
// the wire contract: dashboards and partner integrations branch on them, so
// they stay stable even when messages change.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Operation-specific codes for failures past validation.
	ErrCodeTrackFailed      = "track_failed"
	ErrCodeReportFailed     = "report_failed"
	ErrCodeStatusFailed     = "status_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
