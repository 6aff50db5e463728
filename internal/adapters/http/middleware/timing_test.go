package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutorcenter/internal/adapters/http/perf"
)

func serveTimed(collector *perf.Collector, slow time.Duration, method, path string, h http.HandlerFunc) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	Timing(collector, slow)(h).ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestTiming_RecordsEntries(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		status     int
		wantStatus int
		wantCount  int64
	}{
		{"records request", "/admin", http.StatusOK, http.StatusOK, 1},
		{"captures status", "/missing", http.StatusNotFound, http.StatusNotFound, 1},
		{"skips static", "/static/app.css", http.StatusOK, http.StatusOK, 0},
		{"implicit 200", "/user/dashboard", 0, http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := perf.NewCollector(100)
			rr := serveTimed(collector, 0, "GET", tt.path, func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte("ok"))
			})
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := collector.TotalRecorded(); got != tt.wantCount {
				t.Errorf("TotalRecorded = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestTiming_NilCollector(t *testing.T) {
	rr := serveTimed(nil, 0, "GET", "/admin", func(w http.ResponseWriter, r *http.Request) {})
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestTiming_EntryPathIncludesMethod(t *testing.T) {
	collector := perf.NewCollector(1)
	serveTimed(collector, 0, "POST", "/admin/api/schedules", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "POST /admin/api/schedules" {
		t.Fatalf("SlowestPaths = %+v", snap.SlowestPaths)
	}
	if snap.SlowestPaths[0].AvgMs < 0 {
		t.Errorf("AvgMs = %v, want >= 0", snap.SlowestPaths[0].AvgMs)
	}
}

func TestTiming_SlowRequestLogsWarn(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	serveTimed(nil, time.Nanosecond, "GET", "/admin/tutors", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
	})
	if !strings.Contains(buf.String(), "slow_request") {
		t.Errorf("log = %q, want slow_request", buf.String())
	}
}

// The deferred bookkeeping must run even when the handler panics.
func TestTiming_HandlerPanic(t *testing.T) {
	collector := perf.NewCollector(100)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic to propagate")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
		}
	}()
	serveTimed(collector, 0, "GET", "/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
}

func TestTiming_PoolNoStateLeak(t *testing.T) {
	collector := perf.NewCollector(100)
	rr1 := serveTimed(collector, 0, "GET", "/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	rr2 := serveTimed(collector, 0, "GET", "/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if rr1.Code != 500 || rr2.Code != 200 {
		t.Errorf("codes = %d, %d; want 500, 200", rr1.Code, rr2.Code)
	}
}

func BenchmarkTiming(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/admin", nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
