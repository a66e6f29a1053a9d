// Package transport defines how a command token sequence reaches a host and
// comes back as an exit code with stdout and stderr.
package transport

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrTimeout marks a command that did not finish before its deadline.
var ErrTimeout = errors.New("timed out")

// Command is one invocation attempt. Args is never joined into a shell
// string by callers; implementations that need a string quote each token.
type Command struct {
	Args []string
	// Binary keeps stdout and stderr as raw bytes instead of text.
	Binary bool
	// Operation names the logical operation for logging.
	Operation string
	// Timeout overrides the executor default when positive.
	Timeout time.Duration
}

// Result of one attempt. It is not modified after it is returned.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Executor runs a Command on host. An empty host means the local machine.
// Transport-level failures are returned as errors; a command
// that ran and exited non-zero is not an error.
type Executor interface {
	Execute(ctx context.Context, host string, cmd Command) (Result, error)
}

// StdoutText returns stdout as text.
func (r Result) StdoutText() string { return string(r.Stdout) }

// StderrText returns stderr as text.
func (r Result) StderrText() string { return string(r.Stderr) }

// Combined joins stdout and stderr with a newline, stderr last.
func (r Result) Combined() string {
	return r.StdoutText() + "\n" + r.StderrText()
}

// Text converts raw output to the text form used for non-binary commands.
func Text(b []byte) []byte {
	return []byte(strings.ToValidUTF8(string(b), "�"))
}

// Timeout wraps a deadline failure so errors.Is(err, ErrTimeout) holds.
func Timeout(op string, after time.Duration) error {
	return errors.Wrapf(ErrTimeout, "%s timed out after %s", op, after)
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// Deadline returns the effective timeout for cmd.
func Deadline(cmd Command, def time.Duration) time.Duration {
	if cmd.Timeout > 0 {
		return cmd.Timeout
	}
	return def
}

// Router sends commands for the empty host to Local and everything else
// to Remote.
type Router struct {
	Local  Executor
	Remote Executor
}

func (r *Router) Execute(ctx context.Context, host string, cmd Command) (Result, error) {
	if host == "" || host == "localhost" {
		if r.Local == nil {
			return Result{}, errors.New("local execution is not available")
		}
		return r.Local.Execute(ctx, "", cmd)
	}
	if r.Remote == nil {
		return Result{}, errors.Errorf("no remote transport configured for host %s", host)
	}
	return r.Remote.Execute(ctx, host, cmd)
}
