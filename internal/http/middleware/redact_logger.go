// Package middleware contains the Gin middleware shared by the tracking API.
//
// This file implements RedactingLogger, the access logger the router installs
// instead of the plain Logger. Click traffic carries user-identifying
// material in places a generic API logger would pass through verbatim:
//
//   - referrer URLs, whose paths and queries can embed search terms, email
//     addresses, or session tokens from the linking page
//   - ad-platform click identifiers (gclid, fbclid, and friends), which tie a
//     request to an advertising profile
//   - free-text campaign fields (utm_term, utm_content), which often repeat
//     the search keywords a person typed
//
// RedactingLogger keeps the analytics-relevant shape of a request (route,
// status, latency, campaign source) while scrubbing those vectors. Request
// and response bodies are never logged.
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	// Ad-platform click ids and free-text campaign fields, redacted by
	// parameter name wherever they appear in a query string.
	trackingParamRE = regexp.MustCompile(`(?i)\b(gclid|fbclid|msclkid|yclid|ttclid|utm_term|utm_content)=[^&\s]*`)
	uuidRE          = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE         = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// RedactOptions configures extra scrub behavior for RedactingLogger.
//
// MaskHeaders lists additional header names whose values are replaced with
// "[REDACTED]" wholesale. Matching is case-insensitive and merged with the
// built-in set (Authorization, Cookie, Set-Cookie, X-Api-Key).
type RedactOptions struct {
	MaskHeaders []string
}

// scrubText redacts click identifiers, UUIDs, and email addresses from free
// text. Param-name redaction runs first so a gclid value that happens to look
// like a UUID is labeled by its parameter, not its shape.
func scrubText(s string) string {
	if s == "" {
		return s
	}
	s = trackingParamRE.ReplaceAllString(s, "$1=[REDACTED]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return s
}

// referrerOrigin reduces a referrer URL to scheme://host. The origin is what
// the breakdown reports aggregate on; the path and query are where the PII
// lives. Unparseable referrers are masked entirely.
func referrerOrigin(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "[REDACTED:referrer]"
	}
	return u.Scheme + "://" + u.Host
}

// RedactingLogger returns the scrubbing access logger.
//
// Per request it logs method, route, scrubbed query string, referrer origin,
// status, response size, latency, and the request headers after masking.
// Level follows status: info, warn for 4xx, error for 5xx. The correlation id
// is taken from the response header set by RequestID, falling back to the
// request header.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"x-api-key":     {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		safeQuery := scrubText(c.Request.URL.RawQuery)
		safeRef := referrerOrigin(c.Request.Referer())

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for name, vals := range c.Request.Header {
			lower := strings.ToLower(name)
			if _, ok := masked[lower]; ok {
				safeHeaders[name] = "[REDACTED]"
				continue
			}
			if lower == "referer" {
				safeHeaders[name] = safeRef
				continue
			}
			safeHeaders[name] = scrubText(strings.Join(vals, ", "))
		}

		c.Next()

		status := c.Writer.Status()
		rid := c.Writer.Header().Get(requestIDHeader)
		if rid == "" {
			rid = c.GetHeader(requestIDHeader)
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Str("query", safeQuery).
			Str("referrer", safeRef).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
