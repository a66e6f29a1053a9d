package sosreport

import (
	"context"
	"path"
	"strings"

	"sosfetch/core/internal/commands"
	"sosfetch/core/internal/evidence"
	"sosfetch/core/internal/validation"
)

// Fetch reads the archive named by a fetch reference as raw bytes, writes
// it to the reports directory and returns its SHA-256.
func (s *Service) Fetch(ctx context.Context, req FetchRequest) (res FetchResult, err error) {
	host := s.host(req.Host)
	entry, done := s.begin("fetch_sosreport", host)
	entry.RemotePath = req.FetchReference
	defer func() {
		if err == nil {
			entry.LocalPath = res.ArchivePath
			entry.SizeBytes = res.SizeBytes
			entry.SHA256 = res.SHA256
		}
		done(err)
	}()

	remotePath, err := validation.Path(req.FetchReference)
	if err != nil {
		return FetchResult{}, newError(InvalidInput, err.Error(), err)
	}

	out, err := s.runner.Run(ctx, commands.ReadFile, host, commands.Params{"path": remotePath})
	if err != nil {
		return FetchResult{}, transportError(err, "Fetching sosreport timed out before completion.", "Failed to fetch sosreport")
	}
	if out.ExitCode != 0 {
		stderr := strings.TrimSpace(out.StderrText())
		e := newError(CommandFailure, "Unable to read sosreport archive: "+stderr, nil)
		switch commands.ClassifyPrivilege(out) {
		case commands.PrivilegeSudoPassword:
			e.Kind = InsufficientPrivilege
			e.Msg += ". Configure NOPASSWD for " + commands.CatBinary + " in sudoers."
		case commands.PrivilegeDenied:
			e.Kind = InsufficientPrivilege
		}
		e.ExitCode = out.ExitCode
		e.Output = stderr
		return FetchResult{}, e
	}

	lc, err := s.store.Save(ctx, path.Base(remotePath), out.Stdout, evidence.Manifest{RemotePath: remotePath, Host: host})
	if err != nil {
		return FetchResult{}, newError(StorageFailure, "Unable to store sosreport archive locally: "+err.Error(), err)
	}
	return FetchResult{ArchivePath: lc.Path, SizeBytes: lc.SizeBytes, SHA256: lc.SHA256}, nil
}
