package evidence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"sosfetch/evidence"
)

// Manifest is the sidecar written next to every fetched archive.
type Manifest struct {
	RemotePath string `json:"remote_path"`
	Host       string `json:"host"`
	SizeBytes  int64  `json:"size_bytes"`
	SHA256     string `json:"sha256"`
	FetchedAt  string `json:"fetched_at"`
}

// LocalCopy describes an archive written to the reports directory.
type LocalCopy struct {
	Path string
	evidence.Digest
}

// Store writes fetched archives into a single local directory.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Save writes data as Dir/name, overwriting an earlier copy of the same
// name, and returns the digest of exactly the bytes written.
func (s *Store) Save(ctx context.Context, name string, data []byte, m Manifest) (LocalCopy, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return LocalCopy{}, err
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	d := evidence.SHA256Bytes(data)

	m.SizeBytes = d.SizeBytes
	m.SHA256 = d.SHA256
	if m.FetchedAt == "" {
		m.FetchedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return LocalCopy{}, err
	}

	err = WithLock(ctx, path, func() error {
		if err := WriteFileAtomic(path, data, 0o600); err != nil {
			return err
		}
		return WriteFileAtomic(path+".json", b, 0o600)
	})
	if err != nil {
		return LocalCopy{}, err
	}
	return LocalCopy{Path: path, Digest: d}, nil
}

// ReadManifest loads the sidecar of a stored archive.
func ReadManifest(archivePath string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(archivePath + ".json")
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
