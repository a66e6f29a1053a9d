package sosreport

import "errors"

// Kind classifies a failure for callers.
type Kind string

const (
	InvalidInput          Kind = "invalid_input"
	DependencyMissing     Kind = "dependency_missing"
	InsufficientPrivilege Kind = "insufficient_privilege"
	CommandFailure        Kind = "command_failure"
	TransportFailure      Kind = "transport_failure"
	Timeout               Kind = "timeout"
	PathNotFound          Kind = "path_not_found"
	UnexpectedOutput      Kind = "unexpected_output"
	// StorageFailure is returned when the local copy cannot be written.
	StorageFailure Kind = "storage_failure"
)

// Error is the single user-facing failure of Generate and Fetch. Msg is
// returned verbatim by Error().
type Error struct {
	Kind     Kind
	Msg      string
	ExitCode int
	Output   string
	Err      error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}
