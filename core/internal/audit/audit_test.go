package audit

import (
	"path/filepath"
	"testing"
	"time"

	"sosfetch/core/internal/sosreport"
)

func entry(id, host string, at time.Time) sosreport.Entry {
	return sosreport.Entry{
		ID:        id,
		Tool:      "fetch_sosreport",
		Host:      host,
		StartedAt: at,
		Duration:  1500 * time.Millisecond,
		Status:    "ok",
		SHA256:    "ab",
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "audit.db"))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, h := range []string{"node1", "node2", "node1"} {
		if err := s.Record(entry(string(rune('a'+i)), h, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := s.Recent("", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("order = %+v", all)
	}
	if all[0].DurationMS != 1500 {
		t.Fatalf("duration = %d", all[0].DurationMS)
	}

	node1, err := s.Recent("node1", 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(node1) != 1 || node1[0].ID != "c" {
		t.Fatalf("node1 = %+v", node1)
	}
}

func TestStore_RecentEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	recs, err := s.Recent("nobody", 10)
	if err != nil || len(recs) != 0 {
		t.Fatalf("recs=%v err=%v", recs, err)
	}
}

func TestStore_Get(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	e := entry("id-1", "node1", time.Now().UTC())
	e.Status = "error"
	e.ErrorKind = sosreport.InvalidInput
	if err := s.Record(e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	r, err := s.Get("id-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.ErrorKind != "invalid_input" || r.Host != "node1" {
		t.Fatalf("record = %+v", r)
	}
	if _, err := s.Get("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
