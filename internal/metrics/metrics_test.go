package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Upload("coloringBookPdfs", "ok")
	m.Upload("coloringBookPdfs", "ok")
	m.Upload("coloringBookPdfs", "not_pdf")
	m.Deletion("funFactsPdfs", "ok")
	m.Relay("contact", "rejected")

	if got := testutil.ToFloat64(m.uploads.WithLabelValues("coloringBookPdfs", "ok")); got != 2 {
		t.Errorf("uploads ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.uploads.WithLabelValues("coloringBookPdfs", "not_pdf")); got != 1 {
		t.Errorf("uploads not_pdf = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.deletions.WithLabelValues("funFactsPdfs", "ok")); got != 1 {
		t.Errorf("deletions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.relays.WithLabelValues("contact", "rejected")); got != 1 {
		t.Errorf("relays = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Request("GET", 200, 0.01)
	m.Upload("certificatePdfs", "ok")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)

	for _, want := range []string{
		"activity_zone_uploads_total",
		"activity_zone_http_request_duration_seconds",
		`section="certificatePdfs"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 201: "2xx", 302: "3xx", 404: "4xx", 415: "4xx", 502: "5xx", 507: "5xx"}
	for status, want := range tests {
		if got := statusClass(status); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", status, got, want)
		}
	}
}
