package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRecordersDoNotPanic(t *testing.T) {
	RecordLifecycleOp("device-add", "ok", 5*time.Millisecond)
	RecordLifecycleOp("warm-init-begin", "conflict", 0)
	RecordWarmInitCycle("fast-reconfig", "completed")
	RecordWarmInitCycle("hitless", "aborted")
	SetOpenWarmInitCycles(2)
	SetDevicesAdded(1)
}

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/v1", "/v1"},
		{"/v1/devices", "/v1/devices"},
		{"/v1/devices/0", "/v1/devices/:device"},
		{"/v1/devices/3/warm-init", "/v1/devices/:device/warm-init"},
		{"/v1/devices/3/warm-init/error", "/v1/devices/:device/warm-init/error"},
		{"/v1/history", "/v1/history"},
	}
	for _, tt := range tests {
		if got := canonicalPath(tt.in); got != tt.want {
			t.Errorf("canonicalPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInstrumentHandlerServesWrapped(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := httptest.NewServer(InstrumentHandler(inner))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/devices/0")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTeapot)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordLifecycleOp("device-add", "ok", time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
