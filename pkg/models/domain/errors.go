package domain

import "fmt"

// ErrConfiguration is a bad flag or environment value. Fatal, exit code 2.
type ErrConfiguration struct {
	Key   string
	Value string
	Msg   string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("configuration: %s=%q: %s", e.Key, e.Value, e.Msg)
}

// ErrUnsupportedPlatform is returned when no known package manager is
// present on the host, so missing tools cannot be installed.
type ErrUnsupportedPlatform struct {
	Probed []string
}

func (e *ErrUnsupportedPlatform) Error() string {
	return fmt.Sprintf("unsupported platform: no package manager found (probed %v)", e.Probed)
}

// ErrToolInstall is returned when a tool's installer routine fails. It is
// non-fatal for the run: the dependent scan step is skipped instead.
type ErrToolInstall struct {
	Tool Tool
	Err  error
}

func (e *ErrToolInstall) Error() string {
	return fmt.Sprintf("install %s: %v", e.Tool, e.Err)
}

func (e *ErrToolInstall) Unwrap() error { return e.Err }

// ErrScanExecution is a subprocess crash (as opposed to a policy-finding
// exit code, which is not an error at all).
type ErrScanExecution struct {
	Tool Tool
	Err  error
}

func (e *ErrScanExecution) Error() string {
	return fmt.Sprintf("run %s: %v", e.Tool, e.Err)
}

func (e *ErrScanExecution) Unwrap() error { return e.Err }

// ErrReportWrite aborts the run: the report is the orchestrator's only
// externally visible product.
type ErrReportWrite struct {
	Path string
	Err  error
}

func (e *ErrReportWrite) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *ErrReportWrite) Unwrap() error { return e.Err }
