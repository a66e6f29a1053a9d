package sosreport

import (
	"context"
	"sync"

	"sosfetch/core/internal/commands"
	"sosfetch/core/internal/evidence"
	"sosfetch/transport"
)

type reply struct {
	res transport.Result
	err error
}

// scriptedExec answers commands from a queue and records what it was asked.
type scriptedExec struct {
	mu      sync.Mutex
	replies []reply
	calls   []transport.Command
	hosts   []string
}

func (s *scriptedExec) Execute(_ context.Context, host string, cmd transport.Command) (transport.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, cmd)
	s.hosts = append(s.hosts, host)
	if len(s.replies) == 0 {
		return transport.Result{ExitCode: 127, Stderr: []byte("unexpected command")}, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.res, r.err
}

func stdout(s string) reply {
	return reply{res: transport.Result{Stdout: []byte(s)}}
}

func failed(code int, stderr string) reply {
	return reply{res: transport.Result{ExitCode: code, Stderr: []byte(stderr)}}
}

type memRecorder struct {
	entries []Entry
	err     error
}

func (m *memRecorder) Record(e Entry) error {
	m.entries = append(m.entries, e)
	return m.err
}

func newTestService(dir string, replies ...reply) (*Service, *scriptedExec, *memRecorder) {
	ex := &scriptedExec{replies: replies}
	rec := &memRecorder{}
	runner := commands.NewRunner(ex, commands.SosRegistry(commands.SosOptions{}))
	svc := New(Config{TmpDir: "/var/tmp", Label: "sosfetch", MinVersion: "4.0"}, runner, evidence.NewStore(dir), rec)
	return svc, ex, rec
}
