package config

import "time"

// SandboxConfig controls how generated scanner/executor code is run
// (spec.md §4.4).
type SandboxConfig struct {
	// ScannerTimeout is the wall-clock cap for a scanner run (default 300s).
	ScannerTimeout time.Duration `yaml:"scanner_timeout"`

	// ExecutorTimeout is the wall-clock cap for a custom executor run (default 30s).
	ExecutorTimeout time.Duration `yaml:"executor_timeout"`

	// StdoutByteCap is the maximum stdout size before the process is killed
	// and ExecutionTruncated is reported (default 10 MiB).
	StdoutByteCap int64 `yaml:"stdout_byte_cap"`

	// BaseDir is the parent directory under which per-run scratch
	// directories are created and removed.
	BaseDir string `yaml:"base_dir"`

	// DenyNetwork, when true, strips network-capable environment variables
	// and proxies from the subprocess environment (best-effort; §4.4 notes
	// the sandbox SHOULD deny egress but does not guarantee it).
	DenyNetwork bool `yaml:"deny_network"`
}

// DefaultSandboxConfig returns the built-in sandbox defaults.
func DefaultSandboxConfig() *SandboxConfig {
	return &SandboxConfig{
		ScannerTimeout:  300 * time.Second,
		ExecutorTimeout: 30 * time.Second,
		StdoutByteCap:   10 * 1024 * 1024,
		BaseDir:         "/tmp/stratlab-sandbox",
		DenyNetwork:     true,
	}
}
