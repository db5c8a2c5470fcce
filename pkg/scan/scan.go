// Package scan invokes the external malware scanner against a finished
// workspace and infers the outcome from the directory contents, since the
// scanner reports nothing structured beyond its exit code.
package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"docketsocket/models"
	"docketsocket/pkg/workspace"
)

// LogName is the scanner's own log file, written inside the workspace.
const LogName = "antivirus_scan.log"

// ErrFilesDisappeared signals that the entry count dropped across the scan
// even though nothing was quarantined.
var ErrFilesDisappeared = errors.New("entries disappeared during the virus scan with nothing quarantined")

// Result captures the before/after state of one scan.
type Result struct {
	PreCount    int
	PostCount   int
	Quarantined []string
}

// Scanner shells out to the configured scan command.
type Scanner struct {
	command string
	logger  *slog.Logger
	run     func(name string, args ...string) error
}

// NewScanner creates a Scanner for the configured command.
func NewScanner(cfg models.ScanConfig, logger *slog.Logger) *Scanner {
	return &Scanner{
		command: cfg.Command,
		logger:  logger,
		run:     runCommand,
	}
}

func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Scan counts the workspace's top-level entries, runs the scanner in
// recursive move-on-detect mode, then counts again and lists whatever landed
// in quarantine. A non-zero exit is how the scanner reports detections, so
// it is logged rather than returned.
func (s *Scanner) Scan(root string) (Result, error) {
	pre, err := countEntries(root)
	if err != nil {
		return Result{}, err
	}

	quarantine := filepath.Join(root, workspace.QuarantineDir)
	if err := os.MkdirAll(quarantine, 0700); err != nil {
		return Result{}, fmt.Errorf("failed to create quarantine directory: %w", err)
	}

	args := []string{
		root,
		"--recursive",
		"--move=" + quarantine,
		"--log=" + filepath.Join(root, LogName),
	}
	if err := s.run(s.command, args...); err != nil {
		s.logger.Warn("scan command exited non-zero", "command", s.command, "error", err)
	}

	post, err := countEntries(root)
	if err != nil {
		return Result{}, err
	}
	quarantined, err := filepath.Glob(filepath.Join(quarantine, "*"))
	if err != nil {
		return Result{}, fmt.Errorf("failed to list quarantine: %w", err)
	}

	return Result{PreCount: pre, PostCount: post, Quarantined: quarantined}, nil
}

// Verify checks the scan's count invariant: with nothing quarantined the
// entry count may only grow (the scanner adds its own log), never shrink.
func Verify(r Result) error {
	if len(r.Quarantined) == 0 && r.PostCount < r.PreCount {
		return fmt.Errorf("%w: %d entries before, %d after", ErrFilesDisappeared, r.PreCount, r.PostCount)
	}
	return nil
}

func countEntries(root string) (int, error) {
	entries, err := filepath.Glob(filepath.Join(root, "*"))
	if err != nil {
		return 0, fmt.Errorf("failed to list workspace: %w", err)
	}
	return len(entries), nil
}
