// Package local runs commands on the machine sosfetch itself runs on.
package local

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"sosfetch/log"
	"sosfetch/transport"
)

// waitDelay bounds how long Run waits for pipes held open by grandchildren
// after the direct child was killed.
const waitDelay = 500 * time.Millisecond

// Executor runs command tokens directly with os/exec, never through a shell.
type Executor struct {
	Timeout time.Duration
}

func New(timeout time.Duration) *Executor {
	return &Executor{Timeout: timeout}
}

func (e *Executor) Execute(ctx context.Context, host string, cmd transport.Command) (transport.Result, error) {
	if len(cmd.Args) == 0 {
		return transport.Result{}, errors.New("empty command")
	}
	timeout := transport.Deadline(cmd, e.Timeout)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.With(log.Fields{"op": cmd.Operation, "host": "local"}).Debug("Executing command " + strings.Join(cmd.Args, " "))

	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = waitDelay

	err := c.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return transport.Result{}, transport.Timeout(cmd.Args[0], timeout)
	}
	if ctx.Err() != nil {
		return transport.Result{}, ctx.Err()
	}

	res := transport.Result{ExitCode: 0, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrNotFound):
			// Same status a shell reports for a missing binary.
			res.ExitCode = 127
			res.Stderr = append(res.Stderr, []byte(err.Error())...)
		default:
			return transport.Result{}, err
		}
	}
	if !cmd.Binary {
		res.Stdout = transport.Text(res.Stdout)
		res.Stderr = transport.Text(res.Stderr)
	}
	return res, nil
}
