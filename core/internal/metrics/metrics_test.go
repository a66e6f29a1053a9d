package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sosfetch/core/internal/sosreport"
)

func TestRecorder_WritesLineProtocol(t *testing.T) {
	var body, db string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/write" {
			http.NotFound(w, r)
			return
		}
		db = r.URL.Query().Get("db")
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec, err := New(Config{Server: srv.URL, DB: "sosfetch"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rec.Close()

	err = rec.Record(sosreport.Entry{
		Tool:      "generate_sosreport",
		Host:      "node1",
		Status:    "error",
		ErrorKind: sosreport.Timeout,
		StartedAt: time.Unix(1700000000, 0),
		Duration:  2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if db != "sosfetch" {
		t.Fatalf("db = %q", db)
	}
	for _, want := range []string{Measurement, "host=node1", "kind=timeout", "status=error", "tool=generate_sosreport", "duration_ms=2000i"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body %q missing %q", body, want)
		}
	}
}

func TestRecorder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"database not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	rec, err := New(Config{Server: srv.URL, DB: "missing"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := rec.Record(sosreport.Entry{Tool: "fetch_sosreport", Status: "ok", StartedAt: time.Now()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_RequiresServer(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error")
	}
}
