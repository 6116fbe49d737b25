package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_TrackingRoutesAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.POST("/api/v1/track-click", func(c *gin.Context) {
		c.String(http.StatusOK, `{"eventId":"e1","success":true}`)
	})
	// 204 with no body leaves the writer size at -1, which the size
	// histogram must skip.
	r.POST("/api/v1/analytics/retry-queue/process", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	baseTrack := testutil.ToFloat64(reqTotal.WithLabelValues("POST", "/api/v1/track-click", "200"))
	baseScanner := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/wp-admin", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/track-click", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("track-click -> %d", w.Code)
	}

	// Unmatched scanner traffic lands under its raw path.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("scanner path -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/analytics/retry-queue/process", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("process hook -> %d", w.Code)
	}

	if got := testutil.ToFloat64(reqTotal.WithLabelValues("POST", "/api/v1/track-click", "200")); got != baseTrack+1 {
		t.Fatalf("track-click counter = %v, want %v", got, baseTrack+1)
	}
	if got := testutil.ToFloat64(reqTotal.WithLabelValues("GET", "/wp-admin", "404")); got != baseScanner+1 {
		t.Fatalf("scanner path counter = %v, want %v", got, baseScanner+1)
	}
	if inFlight := testutil.ToFloat64(reqInFlight); inFlight != 0 {
		t.Fatalf("in-flight gauge = %v after completion, want 0", inFlight)
	}
	// The three requests above exercised both histogram paths: observed
	// sizes for bodies, skipped observation for the -1 size of the 204.
}
