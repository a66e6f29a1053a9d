package commands

import (
	"context"

	"sosfetch/transport"
)

// fakeExec returns queued responses in order and records every command.
type fakeExec struct {
	responses []fakeResponse
	calls     []transport.Command
	hosts     []string
}

type fakeResponse struct {
	res transport.Result
	err error
}

func (f *fakeExec) Execute(_ context.Context, host string, cmd transport.Command) (transport.Result, error) {
	f.calls = append(f.calls, cmd)
	f.hosts = append(f.hosts, host)
	if len(f.responses) == 0 {
		return transport.Result{ExitCode: 99}, nil
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r.res, r.err
}

func ok(stdout string) fakeResponse {
	return fakeResponse{res: transport.Result{Stdout: []byte(stdout)}}
}
