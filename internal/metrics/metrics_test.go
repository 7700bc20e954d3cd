package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `creatorpulse_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `creatorpulse_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestCollectorRecordsSyncMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.ObserveSync("ok", 250*time.Millisecond)
	collector.ObserveSync("error", 50*time.Millisecond)
	collector.AddPostsUpserted(42)

	body := scrape(t, collector)
	if !strings.Contains(body, `creatorpulse_sync_account_syncs_total{status="ok"} 1`) {
		t.Fatalf("syncs ok counter not recorded, body=%q", body)
	}
	if !strings.Contains(body, `creatorpulse_sync_account_syncs_total{status="error"} 1`) {
		t.Fatalf("syncs error counter not recorded, body=%q", body)
	}
	if !strings.Contains(body, `creatorpulse_sync_posts_upserted_total 42`) {
		t.Fatalf("posts upserted counter not recorded, body=%q", body)
	}
	if !strings.Contains(body, `creatorpulse_sync_duration_seconds_count 2`) {
		t.Fatalf("sync duration histogram not recorded, body=%q", body)
	}
}

func scrape(t *testing.T, collector *Collector) string {
	t.Helper()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}

	return rr.Body.String()
}
