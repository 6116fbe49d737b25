// Package handlers implements the HTTP endpoints of the tracking API.
//
// This file holds the shared response helpers. Every endpoint, including the
// NoRoute and NoMethod fallbacks, answers failures with the same envelope:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "bad_request",
//	  "message": "linkId must be a positive integer"
//	}
//
// Codes are the stable strings from errors.go; messages are for humans and
// may change between releases.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-affiliate-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint. RequestID
// echoes the X-Request-ID correlation header so a client report can be
// matched to server logs.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"bad_request"`
	Message   string `json:"message" example:"linkId must be a positive integer"`
}

// fail aborts the request with the standard envelope. Server-side failures
// (5xx) are additionally logged through the request-scoped logger; client
// errors are frequent on a public tracking endpoint and stay out of the
// error log.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail exposes fail to the router for its NoRoute/NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent answers 204 for operations with nothing to report.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
