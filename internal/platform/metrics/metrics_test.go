package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareAndHandler(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("middleware must pass status through, got %d", rr.Code)
	}

	RecordEvent("view")
	RejectEvent()

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "clipcast_http_request_duration_seconds") {
		t.Fatal("expected request duration metric in scrape output")
	}
	if !strings.Contains(body, "clipcast_analytics_events_total") {
		t.Fatal("expected events counter in scrape output")
	}
}
