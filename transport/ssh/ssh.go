// Package ssh runs command token sequences on remote hosts over SSH.
package ssh

import (
	"bytes"
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"sosfetch/log"
	"sosfetch/transport"
)

type Config struct {
	User                  string
	Port                  int
	KeyFile               string
	KnownHosts            string
	InsecureIgnoreHostKey bool
	Timeout               time.Duration
	DialTimeout           time.Duration
}

// Executor opens one SSH connection per command. The remote side receives
// the tokens individually shell-quoted, so no token can change the shape of
// the command line.
type Executor struct {
	cfg    Config
	client *ssh.ClientConfig
}

func New(cfg Config) (*Executor, error) {
	if cfg.User == "" {
		return nil, errors.New("ssh user is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 15 * time.Second
	}

	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading ssh key")
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "parsing private key")
	}

	var hostKey ssh.HostKeyCallback
	switch {
	case cfg.KnownHosts != "":
		hostKey, err = knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, errors.Wrap(err, "loading known_hosts")
		}
	case cfg.InsecureIgnoreHostKey:
		hostKey = ssh.InsecureIgnoreHostKey()
	default:
		return nil, errors.New("ssh knownHosts is required unless insecureIgnoreHostKey is set")
	}

	return &Executor{
		cfg: cfg,
		client: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: hostKey,
			Timeout:         cfg.DialTimeout,
		},
	}, nil
}

// CommandLine renders the tokens as a single remote command string.
func CommandLine(args []string) string {
	return shellescape.QuoteCommand(args)
}

func (e *Executor) address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(e.cfg.Port))
}

type runResult struct {
	res transport.Result
	err error
}

func (e *Executor) Execute(ctx context.Context, host string, cmd transport.Command) (transport.Result, error) {
	if len(cmd.Args) == 0 {
		return transport.Result{}, errors.New("empty command")
	}
	timeout := transport.Deadline(cmd, e.cfg.Timeout)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	line := CommandLine(cmd.Args)
	log.With(log.Fields{"op": cmd.Operation, "host": host}).Debug("Executing command " + strings.Join(cmd.Args, " "))

	conn, err := e.connect(ctx, host)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return transport.Result{}, transport.Timeout("ssh connect to "+host, timeout)
		}
		return transport.Result{}, errors.Wrapf(err, "connecting to %s", host)
	}
	// Closing the connection unblocks the handshake, session setup and Run.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := e.handshake(conn, host)
	if err != nil {
		_ = conn.Close()
		if ctx.Err() == context.DeadlineExceeded {
			return transport.Result{}, transport.Timeout("ssh handshake with "+host, timeout)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return transport.Result{}, transport.Timeout("ssh handshake with "+host, e.cfg.DialTimeout)
		}
		return transport.Result{}, errors.Wrapf(err, "ssh handshake with %s", host)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return transport.Result{}, transport.Timeout("ssh session on "+host, timeout)
		}
		return transport.Result{}, errors.Wrap(err, "creating session")
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan runResult, 1)
	go func() {
		err := session.Run(line)
		done <- runResult{err: err}
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = client.Close()
		if ctx.Err() == context.DeadlineExceeded {
			return transport.Result{}, transport.Timeout("ssh command on "+host, timeout)
		}
		return transport.Result{}, ctx.Err()
	case r := <-done:
		res := transport.Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
		if r.err != nil {
			var exitErr *ssh.ExitError
			if !errors.As(r.err, &exitErr) {
				return transport.Result{}, errors.Wrapf(r.err, "running command on %s", host)
			}
			res.ExitCode = exitErr.ExitStatus()
		}
		if !cmd.Binary {
			res.Stdout = transport.Text(res.Stdout)
			res.Stderr = transport.Text(res.Stderr)
		}
		return res, nil
	}
}

func (e *Executor) connect(ctx context.Context, host string) (net.Conn, error) {
	d := net.Dialer{Timeout: e.cfg.DialTimeout}
	return d.DialContext(ctx, "tcp", e.address(host))
}

// handshake bounds the SSH handshake by DialTimeout on top of the
// context, then clears the deadline for the command itself.
func (e *Executor) handshake(conn net.Conn, host string) (*ssh.Client, error) {
	if err := conn.SetDeadline(time.Now().Add(e.cfg.DialTimeout)); err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, e.address(host), e.client)
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = c.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}
