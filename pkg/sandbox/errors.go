// Package sandbox runs LLM-generated scanner/executor code as an isolated
// subprocess, capturing its stdout/stderr within a bounded wall-clock time
// (spec.md §4.4). Grounded on theRebelliousNerd/codenerd's
// internal/tactile.DirectExecutor: exec.CommandContext with a per-call
// timeout, a capped-writer output capture, and process-tree kill on
// timeout.
package sandbox

import "errors"

// ErrSandboxFailed is the top-level sentinel for a failed run; subkinds
// are distinguished with errors.Is against the values below (spec.md §7).
var ErrSandboxFailed = errors.New("sandbox execution failed")

var (
	// ErrTimeout indicates the wall-clock cap fired before the process exited.
	ErrTimeout = errors.New("sandbox/timeout")

	// ErrExecutionTruncated indicates stdout exceeded the byte cap and the
	// process was killed.
	ErrExecutionTruncated = errors.New("sandbox/truncated")

	// ErrWorkspaceSetup indicates the scratch directory or source file
	// could not be prepared.
	ErrWorkspaceSetup = errors.New("sandbox/workspace-setup-failed")

	// ErrNonzeroExit and ErrOutputUnparseable are the remaining SandboxFailed
	// subkinds of spec.md §7; Execute never returns them itself (a nonzero
	// exit and an unparseable stdout are first-class, non-error outcomes at
	// this layer per spec.md §6) — callers that need to fail an iteration
	// on these conditions wrap them with fmt.Errorf("...: %w", ...).
	ErrNonzeroExit        = errors.New("sandbox/nonzero-exit")
	ErrOutputUnparseable  = errors.New("sandbox/output-unparseable")
)
