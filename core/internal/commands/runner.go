package commands

import (
	"context"
	"strings"

	"sosfetch/log"
	"sosfetch/transport"
)

// Runner renders registered commands and sends them to the transport.
type Runner struct {
	exec     transport.Executor
	registry *Registry
}

func NewRunner(exec transport.Executor, registry *Registry) *Runner {
	return &Runner{exec: exec, registry: registry}
}

// Run executes the named command once. Transport failures are returned
// unchanged so callers can tell timeouts apart; a non-zero exit is not an
// error here.
func (r *Runner) Run(ctx context.Context, name, host string, p Params) (transport.Result, error) {
	spec, err := r.registry.Get(name)
	if err != nil {
		return transport.Result{}, err
	}
	cmd, err := spec.Render(name, p)
	if err != nil {
		return transport.Result{}, err
	}
	res, err := r.exec.Execute(ctx, host, cmd)
	if err != nil {
		log.Check(log.DebugLevel, "Command "+name+" failed on transport", err)
		return transport.Result{}, err
	}
	log.With(log.Fields{"cmd": name, "host": host, "exit": res.ExitCode}).Debug("Command finished")
	return res, nil
}

// Privilege describes why a failed command looks like a permission problem.
type Privilege int

const (
	PrivilegeOK Privilege = iota
	// PrivilegeDenied covers "permission denied", superuser and root messages.
	PrivilegeDenied
	// PrivilegeSudoPassword means sudo wanted a password; NOPASSWD is missing.
	PrivilegeSudoPassword
)

var deniedPhrases = []string{"permission denied", "superuser", "root"}

// ClassifyPrivilege inspects the lower-cased output of a failed command.
func ClassifyPrivilege(res transport.Result) Privilege {
	combined := strings.ToLower(res.Combined())
	if strings.Contains(combined, "sudo: a password is required") {
		return PrivilegeSudoPassword
	}
	for _, p := range deniedPhrases {
		if strings.Contains(combined, p) {
			return PrivilegeDenied
		}
	}
	return PrivilegeOK
}
