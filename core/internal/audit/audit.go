// Package audit keeps a local history of generate and fetch invocations in
// a storm (bbolt) database.
package audit

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"sosfetch/core/internal/evidence"
	"sosfetch/core/internal/sosreport"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("audit record not found")

// Record is one stored invocation.
type Record struct {
	ID         string    `storm:"id" json:"id" yaml:"id"`
	Tool       string    `storm:"index" json:"tool" yaml:"tool"`
	Host       string    `storm:"index" json:"host" yaml:"host"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	StartedNS  int64     `storm:"index" json:"started_ns" yaml:"-"`
	DurationMS int64     `json:"duration_ms" yaml:"duration_ms"`
	Status     string    `json:"status" yaml:"status"`
	ErrorKind  string    `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Message    string    `json:"message,omitempty" yaml:"message,omitempty"`
	RemotePath string    `json:"remote_path,omitempty" yaml:"remote_path,omitempty"`
	LocalPath  string    `json:"local_path,omitempty" yaml:"local_path,omitempty"`
	SizeBytes  int64     `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	SHA256     string    `json:"sha256,omitempty" yaml:"sha256,omitempty"`
}

// Store opens the database for every operation so the CLI and a running
// server can share one file.
type Store struct {
	path    string
	timeout time.Duration
}

func NewStore(path string) *Store {
	return &Store{path: path, timeout: 15 * time.Second}
}

func (s *Store) open() (*storm.DB, error) {
	if err := evidence.EnsureParent(s.path); err != nil {
		return nil, err
	}
	db, err := storm.Open(s.path, storm.BoltOptions(0o600, &bolt.Options{Timeout: s.timeout}))
	if err != nil {
		return nil, errors.Wrapf(err, "opening audit db %s", s.path)
	}
	return db, nil
}

// Record implements sosreport.Recorder.
func (s *Store) Record(e sosreport.Entry) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Save(&Record{
		ID:         e.ID,
		Tool:       e.Tool,
		Host:       e.Host,
		StartedAt:  e.StartedAt,
		StartedNS:  e.StartedAt.UnixNano(),
		DurationMS: e.Duration.Milliseconds(),
		Status:     e.Status,
		ErrorKind:  string(e.ErrorKind),
		Message:    e.Message,
		RemotePath: e.RemotePath,
		LocalPath:  e.LocalPath,
		SizeBytes:  e.SizeBytes,
		SHA256:     e.SHA256,
	})
}

// Recent returns up to limit records, newest first. An empty host matches
// every host; limit <= 0 means no limit.
func (s *Store) Recent(host string, limit int) ([]Record, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var matchers []q.Matcher
	if host != "" {
		matchers = append(matchers, q.Eq("Host", host))
	}
	query := db.Select(matchers...).OrderBy("StartedNS").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []Record
	err = query.Find(&records)
	if err == storm.ErrNotFound {
		err = nil
	}
	return records, err
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (*Record, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var r Record
	if err := db.One("ID", id, &r); err != nil {
		if err == storm.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}
