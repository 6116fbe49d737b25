// Package middleware contains the Gin middleware shared by the tracking API.
//
// This file covers request correlation and structured logging:
//
//   - RequestID() gives every request a stable correlation id, propagated
//     through the X-Request-ID header, so a single click can be followed from
//     the access log through the ingestion service and, when it falls back to
//     the queue, into the retry processor's logs.
//   - Logger() emits one structured access log line per request and stores a
//     request-scoped zerolog.Logger in the Gin context for handlers and
//     services to enrich (e.g. lg.Info().Str("event_id", id).Msg("queued")).
//   - Recovery() turns panics into the standard JSON 500 envelope without
//     losing the correlation id.
//
// Install RequestID first, then a logger (this API's router installs
// RedactingLogger, which scrubs referrer and campaign data), then Recovery,
// so panics are logged with the correlation id attached.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key holding the correlation id.
	requestIDKey = "requestID"
	// requestIDHeader carries the correlation id on requests and responses.
	requestIDHeader = "X-Request-ID"
	// ctxLoggerKey is the Gin context key holding the request-scoped logger.
	ctxLoggerKey = "logger"
	// maxLoggedQuery caps how many bytes of a raw query string reach the log.
	// Referrer and campaign query strings can be arbitrarily long.
	maxLoggedQuery = 2048
)

// RequestID reuses an incoming X-Request-ID or generates a UUIDv4, stores it
// in the Gin context, and echoes it on the response. Must run before any
// middleware that logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes one structured access log line per request and attaches a
// request-scoped zerolog.Logger to the Gin context.
//
// The emitted level follows the outcome: error for 5xx or when the Gin
// context collected errors, warn for 4xx, info otherwise. The path field is
// the registered route pattern when one matched, the raw URL path otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		l := log.With().
			Str("request_id", ctxString(rid)).
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", clip(c.Request.URL.RawQuery, maxLoggedQuery)).
			Int64("bytes_in", c.Request.ContentLength).
			Logger()
		c.Set(ctxLoggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		ev.Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Msg("request")
	}
}

// Recovery converts panics into the standard JSON 500 envelope
// {request_id, code, message} and logs the panic with a stack trace. When the
// handler already wrote part of a response, only the status is forced.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", ctxString(rid)).
					Msg("panic recovered")

				if c.Writer.Written() {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				c.Header("Content-Type", "application/json")
				c.Header(requestIDHeader, ctxString(rid))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"request_id": ctxString(rid),
					"code":       "internal_error",
					"message":    "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by Logger, or a
// fallback without request fields. Never returns nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxLoggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// routePath returns the registered route pattern, falling back to the raw
// URL path for unmatched requests. Metric and log labels use this to keep
// cardinality bounded.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// ctxString unwraps a string context value, empty when absent or not a string.
func ctxString(v any) string {
	s, _ := v.(string)
	return s
}

// clip truncates s to max bytes with an ellipsis. max <= 0 disables clipping.
func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
