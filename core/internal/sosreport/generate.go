package sosreport

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"sosfetch/analyzers/reportpath"
	"sosfetch/core/internal/commands"
	"sosfetch/core/internal/validation"
)

const (
	generateTimeoutMsg = "sosreport command timed out before completion."
	generateFailPrefix = "Failed to execute sosreport"
)

// Generate runs sos report once on the target host and returns the
// archive metadata. Invalid input is rejected before any remote command.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (res GenerateResult, err error) {
	host := s.host(req.Host)
	entry, done := s.begin("generate_sosreport", host)
	defer func() {
		if err == nil {
			entry.RemotePath = res.Archive.RemotePath
			entry.SizeBytes = res.Archive.SizeBytes
		}
		done(err)
	}()

	opts, err := validateGenerate(req)
	if err != nil {
		return GenerateResult{}, err
	}

	if err := s.checkVersion(ctx, host); err != nil {
		return GenerateResult{}, err
	}

	params := commands.Params{
		"tmp_dir":            s.cfg.TmpDir,
		"label":              s.cfg.Label,
		"only_plugins":       opts.OnlyPlugins,
		"enable_plugins":     opts.EnablePlugins,
		"disable_plugins":    opts.DisablePlugins,
		"log_size":           opts.LogSize,
		"redaction_disabled": !opts.Redaction,
	}
	out, err := s.runner.Run(ctx, commands.SosGenerate, host, params)
	if err != nil {
		return GenerateResult{}, transportError(err, generateTimeoutMsg, generateFailPrefix)
	}
	if out.ExitCode != 0 {
		return GenerateResult{}, generateFailure(out.ExitCode, out.StdoutText(), out.StderrText(), commands.ClassifyPrivilege(out))
	}

	found, err := s.runner.Recover(ctx, host, out, params, commands.GenerateSteps(s.cfg.TmpDir, s.cfg.Label))
	if err != nil {
		if errors.Is(err, reportpath.ErrNotFound) {
			return GenerateResult{}, newError(PathNotFound, err.Error(), err)
		}
		return GenerateResult{}, transportError(err, "Listing sosreport archives timed out before completion.", "Failed to list sosreport archives")
	}
	remotePath, err := validation.Path(found)
	if err != nil {
		return GenerateResult{}, newError(UnexpectedOutput, "Recovered archive path was rejected: "+err.Error(), err)
	}

	size, created, err := s.stat(ctx, host, remotePath)
	if err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{
		Archive: Archive{
			ID:         remotePath,
			RemotePath: remotePath,
			Filename:   path.Base(remotePath),
			SizeBytes:  size,
			CreatedAt:  created,
			Host:       host,
		},
		FetchReference: remotePath,
		Options:        opts,
	}, nil
}

func validateGenerate(req GenerateRequest) (Options, error) {
	invalid := func(err error) (Options, error) {
		return Options{}, newError(InvalidInput, err.Error(), err)
	}
	only, err := validation.PluginValues(req.OnlyPlugins, "only_plugins")
	if err != nil {
		return invalid(err)
	}
	enable, err := validation.PluginValues(req.EnablePlugins, "enable_plugins")
	if err != nil {
		return invalid(err)
	}
	disable, err := validation.PluginValues(req.DisablePlugins, "disable_plugins")
	if err != nil {
		return invalid(err)
	}
	if err := validation.PluginScope(only, enable, disable); err != nil {
		return invalid(err)
	}
	logSize, err := validation.LogSize(req.LogSize)
	if err != nil {
		return invalid(err)
	}
	redaction := true
	if req.Redaction != nil {
		redaction = *req.Redaction
	}
	return Options{
		OnlyPlugins:    only,
		EnablePlugins:  enable,
		DisablePlugins: disable,
		LogSize:        logSize,
		Redaction:      redaction,
	}, nil
}

func generateFailure(code int, stdout, stderr string, p commands.Privilege) *Error {
	var e *Error
	switch p {
	case commands.PrivilegeSudoPassword:
		e = newError(InsufficientPrivilege, "Insufficient privileges to run sosreport on the target host. "+
			"Configure NOPASSWD for the sos command in sudoers.", nil)
	case commands.PrivilegeDenied:
		e = newError(InsufficientPrivilege, "Insufficient privileges to run sosreport on the target host.", nil)
	default:
		out := stderr
		if strings.TrimSpace(out) == "" {
			out = stdout
		}
		e = newError(CommandFailure, fmt.Sprintf("sosreport command failed with exit code %d: %s", code, out), nil)
	}
	e.ExitCode = code
	e.Output = stdout + "\n" + stderr
	return e
}

// stat reads size and mtime of the archive as two whitespace separated
// tokens: bytes and epoch seconds.
func (s *Service) stat(ctx context.Context, host, remotePath string) (int64, time.Time, error) {
	res, err := s.runner.Run(ctx, commands.SosStat, host, commands.Params{"path": remotePath})
	if err != nil {
		return 0, time.Time{}, transportError(err, "Stat of sosreport archive timed out before completion.", "Failed to stat sosreport archive")
	}
	if res.ExitCode != 0 {
		e := newError(CommandFailure, "Unable to stat sosreport archive: "+stderrOr(res), nil)
		e.ExitCode = res.ExitCode
		e.Output = res.Combined()
		return 0, time.Time{}, e
	}

	out := res.StdoutText()
	unexpected := newError(UnexpectedOutput, "Unexpected stat output: "+out, nil)
	parts := strings.Fields(out)
	if len(parts) != 2 {
		return 0, time.Time{}, unexpected
	}
	size, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || size < 0 {
		return 0, time.Time{}, unexpected
	}
	epoch, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, time.Time{}, unexpected
	}
	return size, time.Unix(epoch, 0).UTC(), nil
}
