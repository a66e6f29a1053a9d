// Package sosreport generates sos archives on a target host and fetches
// them back with a SHA-256 digest. Each call is sequential: every remote
// step depends on the output of the previous one.
package sosreport

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcuadros/go-version"

	"sosfetch/core/internal/commands"
	"sosfetch/core/internal/evidence"
	"sosfetch/log"
	"sosfetch/transport"
)

type Config struct {
	// DefaultHost is used when a request names no host. Empty means local.
	DefaultHost string
	TmpDir      string
	Label       string
	// MinVersion rejects older sos releases when the probe reports a version.
	MinVersion string
}

type Service struct {
	cfg       Config
	runner    *commands.Runner
	store     *evidence.Store
	recorders []Recorder
	now       func() time.Time
}

func New(cfg Config, runner *commands.Runner, store *evidence.Store, recorders ...Recorder) *Service {
	if cfg.TmpDir == "" {
		cfg.TmpDir = "/var/tmp"
	}
	if cfg.Label == "" {
		cfg.Label = "sosfetch"
	}
	return &Service{cfg: cfg, runner: runner, store: store, recorders: recorders, now: time.Now}
}

func (s *Service) host(h string) string {
	if h == "" {
		return s.cfg.DefaultHost
	}
	return h
}

// begin starts an Entry; the returned func completes and records it.
func (s *Service) begin(tool, host string) (*Entry, func(error)) {
	e := &Entry{ID: uuid.NewString(), Tool: tool, Host: host, StartedAt: s.now().UTC()}
	return e, func(err error) {
		e.Duration = s.now().Sub(e.StartedAt)
		fields := log.Fields{"id": e.ID, "tool": tool, "host": host, "duration": e.Duration}
		if err != nil {
			e.Status = "error"
			e.ErrorKind = KindOf(err)
			e.Message = err.Error()
			fields["kind"] = e.ErrorKind
			log.With(fields).Warn(tool + " failed: " + err.Error())
		} else {
			e.Status = "ok"
			log.With(fields).Info(tool + " finished")
		}
		for _, r := range s.recorders {
			log.Check(log.WarnLevel, "Recording "+tool+" invocation", r.Record(*e))
		}
	}
}

// transportError maps a transport failure to Timeout or TransportFailure.
func transportError(err error, timeoutMsg, failPrefix string) *Error {
	if transport.IsTimeout(err) {
		return newError(Timeout, timeoutMsg, err)
	}
	return newError(TransportFailure, failPrefix+": "+err.Error(), err)
}

var versionRE = regexp.MustCompile(`\b(\d+\.\d+(?:\.\d+)?)\b`)

// checkVersion runs the probe. Generation is never attempted without it.
func (s *Service) checkVersion(ctx context.Context, host string) error {
	res, err := s.runner.Run(ctx, commands.SosVersion, host, nil)
	if err != nil {
		return transportError(err, "sos version probe timed out before completion.", "Failed to probe sos version")
	}
	if res.ExitCode != 0 {
		e := newError(DependencyMissing, fmt.Sprintf(
			"sos is not installed on the target host. Install it with: dnf install sos (error: %s)",
			strings.TrimSpace(res.StderrText())), nil)
		e.ExitCode = res.ExitCode
		return e
	}
	if s.cfg.MinVersion == "" {
		return nil
	}
	m := versionRE.FindStringSubmatch(res.StdoutText())
	if m == nil {
		return nil
	}
	if version.Compare(m[1], s.cfg.MinVersion, "<") {
		return newError(DependencyMissing, fmt.Sprintf(
			"sos %s is older than the required %s. Install a newer version with: dnf install sos",
			m[1], s.cfg.MinVersion), nil)
	}
	return nil
}

func stderrOr(res transport.Result) string {
	if out := strings.TrimSpace(res.StderrText()); out != "" {
		return out
	}
	return strings.TrimSpace(res.StdoutText())
}
