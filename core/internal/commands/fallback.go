package commands

import (
	"context"

	"sosfetch/analyzers/reportpath"
	"sosfetch/log"
	"sosfetch/transport"
)

// Step is one way of recovering the archive path. If Command is set it is
// run first and its output is appended to the accumulated text; Strategies
// then run over everything seen so far.
type Step struct {
	Name       string
	Command    string
	Strategies []reportpath.Strategy
}

// GenerateSteps is the recovery order after a generate call: the generate
// output itself, then a listing of the tmp dir for the newest labeled file.
func GenerateSteps(tmpDir, label string) []Step {
	return []Step{
		{Name: "output", Strategies: []reportpath.Strategy{reportpath.Absolute(), reportpath.BareName(tmpDir)}},
		{Name: "latest-named", Command: SosLatest, Strategies: []reportpath.Strategy{reportpath.Labeled(tmpDir, label)}},
	}
}

// Recover walks steps in order after the single authoritative generate
// result. It never re-runs generation. A fallback command that exits
// non-zero is skipped; a transport failure is returned as is.
func (r *Runner) Recover(ctx context.Context, host string, generated transport.Result, p Params, steps []Step) (string, error) {
	text := reportpath.Combine(generated.StdoutText(), generated.StderrText())
	for _, st := range steps {
		if st.Command != "" {
			res, err := r.Run(ctx, st.Command, host, p)
			if err != nil {
				return "", err
			}
			if res.ExitCode != 0 {
				log.With(log.Fields{"step": st.Name, "exit": res.ExitCode}).Debug("Fallback command failed, skipping")
				continue
			}
			text += "\n" + reportpath.Combine(res.StdoutText(), res.StderrText())
		}
		if found, by, err := reportpath.Find(text, st.Strategies...); err == nil {
			log.With(log.Fields{"step": st.Name, "strategy": by, "path": found}).Debug("Recovered archive path")
			return found, nil
		}
	}
	return "", reportpath.ErrNotFound
}
