package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Digest is the integrity record of a byte payload.
type Digest struct {
	SHA256    string `json:"sha256" yaml:"sha256"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
}

func SHA256Bytes(b []byte) Digest {
	h := sha256.Sum256(b)
	return Digest{SHA256: hex.EncodeToString(h[:]), SizeBytes: int64(len(b))}
}

func SHA256Reader(r io.Reader) (Digest, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return Digest{}, err
	}
	return Digest{SHA256: hex.EncodeToString(h.Sum(nil)), SizeBytes: n}, nil
}

func SHA256File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	d, err := SHA256Reader(f)
	if err != nil {
		return "", 0, err
	}
	return d.SHA256, d.SizeBytes, nil
}
