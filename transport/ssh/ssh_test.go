package ssh

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/ssh"

	"sosfetch/transport"
)

func TestCommandLine_QuotesEveryToken(t *testing.T) {
	got := CommandLine([]string{"stat", "-c", "%s %Y", "/var/tmp/a b; rm -rf /"})
	want := `stat -c '%s %Y' '/var/tmp/a b; rm -rf /'`
	if got != want {
		t.Errorf("CommandLine() = %q, want %q", got, want)
	}
}

func TestCommandLine_SingleQuoteInToken(t *testing.T) {
	got := CommandLine([]string{"cat", "/tmp/it's"})
	if !strings.HasPrefix(got, "cat ") || strings.Count(got, "'") < 3 {
		t.Errorf("CommandLine() = %q", got)
	}
}

func TestAddress(t *testing.T) {
	e := &Executor{cfg: Config{Port: 2222}}
	if got := e.address("node1"); got != "node1:2222" {
		t.Errorf("address(node1) = %q", got)
	}
	if got := e.address("node1:22"); got != "node1:22" {
		t.Errorf("address(node1:22) = %q", got)
	}
	if got := e.address("fe80::1"); got != "[fe80::1]:2222" {
		t.Errorf("address(fe80::1) = %q", got)
	}
}

func TestNew_RequiresUser(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without user")
	}
}

func TestNew_MissingKey(t *testing.T) {
	_, err := New(Config{User: "root", KeyFile: "/nonexistent/id_ed25519", InsecureIgnoreHostKey: true})
	if err == nil || !strings.Contains(err.Error(), "reading ssh key") {
		t.Fatalf("New() error = %v", err)
	}
}

func TestExecute_ExitZero(t *testing.T) {
	commands := make(chan string, 1)
	addr := startServer(t, func(command string, ch ssh.Channel) {
		commands <- command
		_, _ = ch.Write([]byte("4096 1700000000\n"))
		exitWith(ch, 0)
	})
	e := newTestExecutor(t, 5*time.Second)
	res, err := e.Execute(context.Background(), addr, transport.Command{Args: []string{"stat", "-c", "%s %Y", "/var/tmp/a b"}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.ExitCode != 0 || res.StdoutText() != "4096 1700000000\n" {
		t.Errorf("res = %+v", res)
	}
	if got := <-commands; got != `stat -c '%s %Y' '/var/tmp/a b'` {
		t.Errorf("remote command = %q", got)
	}
}

func TestExecute_NonZeroExit(t *testing.T) {
	addr := startServer(t, func(_ string, ch ssh.Channel) {
		_, _ = ch.Stderr().Write([]byte("sudo: a password is required\n"))
		exitWith(ch, 1)
	})
	res, err := newTestExecutor(t, 5*time.Second).Execute(context.Background(), addr, transport.Command{Args: []string{"sudo", "-n", "true"}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.ExitCode != 1 || res.StderrText() != "sudo: a password is required\n" {
		t.Errorf("res = %+v", res)
	}
}

func TestExecute_BinaryKeepsBytes(t *testing.T) {
	payload := []byte{0xfd, '7', 'z', 'X', 'Z', 0x00, 0xff, 0xfe}
	addr := startServer(t, func(_ string, ch ssh.Channel) {
		_, _ = ch.Write(payload)
		exitWith(ch, 0)
	})
	e := newTestExecutor(t, 5*time.Second)

	res, err := e.Execute(context.Background(), addr, transport.Command{Args: []string{"cat", "/x"}, Binary: true})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !bytes.Equal(res.Stdout, payload) {
		t.Errorf("stdout = %x, want %x", res.Stdout, payload)
	}

	res, err = e.Execute(context.Background(), addr, transport.Command{Args: []string{"cat", "/x"}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if bytes.Equal(res.Stdout, payload) || !utf8.Valid(res.Stdout) {
		t.Errorf("text mode stdout = %x, want valid UTF-8", res.Stdout)
	}
}

func TestExecute_MissingExitStatusIsTransportError(t *testing.T) {
	addr := startServer(t, func(_ string, ch ssh.Channel) {
		_ = ch.Close()
	})
	_, err := newTestExecutor(t, 5*time.Second).Execute(context.Background(), addr, transport.Command{Args: []string{"true"}})
	if err == nil || transport.IsTimeout(err) {
		t.Fatalf("Execute() error = %v, want non-timeout transport error", err)
	}
}

func TestExecute_HungCommandTimesOut(t *testing.T) {
	addr := startServer(t, func(_ string, ch ssh.Channel) {
		drain(ch)
		_ = ch.Close()
	})
	start := time.Now()
	_, err := newTestExecutor(t, 200*time.Millisecond).Execute(context.Background(), addr, transport.Command{Args: []string{"sleep", "60"}})
	if !transport.IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout took %s", time.Since(start))
	}
}

func TestExecute_SilentServerTimesOut(t *testing.T) {
	addr := silentListener(t)
	start := time.Now()
	_, err := newTestExecutor(t, 200*time.Millisecond).Execute(context.Background(), addr, transport.Command{Args: []string{"true"}})
	if !transport.IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout took %s", time.Since(start))
	}
}

func TestExecute_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	_, err = newTestExecutor(t, 5*time.Second).Execute(context.Background(), addr, transport.Command{Args: []string{"true"}})
	if err == nil || transport.IsTimeout(err) {
		t.Fatalf("Execute() error = %v, want connection failure", err)
	}
}
