// Package supervisorerr defines the error-kind taxonomy used across the
// supervisor: ConfigError for fatal startup problems, AppError for
// domain-level failures with a user-facing message, and IoError/TransientExec
// helpers for wrapping lower-level failures without losing their kind.
package supervisorerr

import "fmt"

// ConfigError marks a fatal problem discovered while loading or validating
// configuration. The process entry point exits non-zero on any ConfigError.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func NewConfigError(msg string) *ConfigError {
	return &ConfigError{Msg: msg}
}

func WrapConfigError(msg string, err error) *ConfigError {
	return &ConfigError{Msg: msg, Err: err}
}

// AppError carries an explicit, user-facing message for domain failures
// such as "unknown file type" or "remote loader not implemented".
type AppError struct {
	Msg string
}

func (e *AppError) Error() string { return e.Msg }

func NewAppError(format string, args ...any) *AppError {
	return &AppError{Msg: fmt.Sprintf(format, args...)}
}

// IoError wraps a filesystem or temp-file failure. Whether it is fatal
// depends on where it occurs: fatal on the startup path, logged-and-skipped
// inside probe or hook execution.
type IoError struct {
	Msg string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io: %s: %v", e.Msg, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

func WrapIoError(msg string, err error) *IoError {
	return &IoError{Msg: msg, Err: err}
}

// TransientExec marks a child or script spawn failure during steady state.
// It is never fatal: the caller logs it and records a degraded state
// (EXITED(1) for the Binary Worker, a skipped tick for a Script Worker).
type TransientExec struct {
	Msg string
	Err error
}

func (e *TransientExec) Error() string {
	return fmt.Sprintf("exec: %s: %v", e.Msg, e.Err)
}

func (e *TransientExec) Unwrap() error { return e.Err }

func WrapTransientExec(msg string, err error) *TransientExec {
	return &TransientExec{Msg: msg, Err: err}
}
