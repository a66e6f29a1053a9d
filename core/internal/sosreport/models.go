package sosreport

import "time"

// GenerateRequest carries the caller's generate options. Nil plugin lists
// are absent; non-nil empty lists are rejected. Redaction defaults to on
// when nil.
type GenerateRequest struct {
	Host           string   `json:"host,omitempty"`
	OnlyPlugins    []string `json:"only_plugins,omitempty"`
	EnablePlugins  []string `json:"enable_plugins,omitempty"`
	DisablePlugins []string `json:"disable_plugins,omitempty"`
	LogSize        string   `json:"log_size,omitempty"`
	Redaction      *bool    `json:"redaction,omitempty"`
}

// Archive is the metadata of a generated archive on the remote host.
type Archive struct {
	ID         string    `json:"id" yaml:"id"`
	RemotePath string    `json:"remote_path" yaml:"remote_path"`
	Filename   string    `json:"filename" yaml:"filename"`
	SizeBytes  int64     `json:"size_bytes" yaml:"size_bytes"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Host       string    `json:"host" yaml:"host"`
}

// Options echoes the effective generate options.
type Options struct {
	OnlyPlugins    []string `json:"only_plugins" yaml:"only_plugins"`
	EnablePlugins  []string `json:"enable_plugins" yaml:"enable_plugins"`
	DisablePlugins []string `json:"disable_plugins" yaml:"disable_plugins"`
	LogSize        string   `json:"log_size,omitempty" yaml:"log_size,omitempty"`
	Redaction      bool     `json:"redaction" yaml:"redaction"`
}

type GenerateResult struct {
	Archive        Archive `json:"archive" yaml:"archive"`
	FetchReference string  `json:"fetch_reference" yaml:"fetch_reference"`
	Options        Options `json:"options" yaml:"options"`
}

type FetchRequest struct {
	FetchReference string `json:"fetch_reference"`
	Host           string `json:"host,omitempty"`
}

type FetchResult struct {
	ArchivePath string `json:"archive_path" yaml:"archive_path"`
	SizeBytes   int64  `json:"size_bytes" yaml:"size_bytes"`
	SHA256      string `json:"sha256" yaml:"sha256"`
}

// Entry is the record of one invocation handed to every Recorder.
type Entry struct {
	ID         string
	Tool       string
	Host       string
	StartedAt  time.Time
	Duration   time.Duration
	Status     string
	ErrorKind  Kind
	Message    string
	RemotePath string
	LocalPath  string
	SizeBytes  int64
	SHA256     string
}

// Recorder receives one Entry per invocation. Failures are logged and do
// not affect the invocation.
type Recorder interface {
	Record(e Entry) error
}
