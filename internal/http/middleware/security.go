// Package middleware contains the Gin middleware shared by the tracking API.
//
// This file provides SecurityHeaders, which hardens every response of this
// JSON-and-CSV API with a conservative header set. The API never serves HTML,
// so there is no CSP here; the headers that matter are content-type sniffing
// protection (the CSV export must not be reinterpreted), framing denial, and
// a strict referrer policy so the API itself never leaks URLs onward.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the emitted security headers.
//
// EnableHSTS turns on Strict-Transport-Security, sent only when the request
// actually arrived over HTTPS (directly or via X-Forwarded-Proto). Enable it
// only when traffic is HTTPS end to end, including proxy to app.
//
// HSTSMaxAge is the HSTS lifetime; non-positive values fall back to 180 days.
//
// NoStore adds Cache-Control: no-store (plus the legacy Pragma/Expires pair)
// for deployments that treat analytics responses as sensitive.
//
// EnablePolicy adds the browser feature-policy headers. They only affect
// browser clients and are harmless for tracking pixels and server callers.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// SecurityHeaders returns a middleware that stamps the configured security
// headers on every response.
//
// Always set: X-Content-Type-Options: nosniff, X-Frame-Options: DENY,
// Referrer-Policy: no-referrer. The rest follow SecurityOptions. When a
// correlation id is present it is added to Access-Control-Expose-Headers so
// browser dashboards can read it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	hstsSeconds := int(opt.HSTSMaxAge.Seconds())
	if hstsSeconds <= 0 {
		hstsSeconds = int((180 * 24 * time.Hour).Seconds())
	}
	hstsValue := "max-age=" + strconv.Itoa(hstsSeconds) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}

		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers without
// clobbering or duplicating existing entries.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}

// isHTTPS reports whether the request used HTTPS, either terminated here
// (r.TLS set) or at a proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
