// Package workspace manages the run-scoped output directory tree: category
// subdirectories, the append-only run log, path relativization, and
// empty-directory pruning.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docketsocket/models"
)

// Fixed names inside a workspace.
const (
	PrimaryDir    = "Primary_Documents"
	SupportingDir = "Supporting_Documents"
	CommentsDir   = "Comments"
	QuarantineDir = "flagged_by_clam_AV"
	LogName       = "docket_socket_log_file.log"
)

// Workspace is the materialized output tree for one run. It is exclusively
// owned by the run until final packaging.
type Workspace struct {
	Root           string
	PrimaryPath    string
	SupportingPath string
	CommentsPath   string

	log *os.File
	now func() time.Time
}

// RootName derives the directory name for a docket and category
// combination. A single category appends its tag to the docket ID, two
// append both, and all three collapse to the bare ID.
func RootName(docketID string, cats models.CategorySet) string {
	if cats.Count() == 3 {
		return docketID
	}
	return docketID + "_" + strings.Join(cats.Tags(), "_")
}

// Create builds the workspace tree under baseDir and opens the run log.
// With a single requested category the root doubles as that category's
// directory; with more than one, each category gets its own subdirectory.
func Create(baseDir, docketID string, cats models.CategorySet) (*Workspace, error) {
	if !cats.Any() {
		return nil, fmt.Errorf("unable to create workspace: no category selected")
	}

	root := filepath.Join(baseDir, RootName(docketID, cats))
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}

	w := &Workspace{Root: root, now: time.Now}

	if cats.Count() == 1 {
		if cats.Primary {
			w.PrimaryPath = root
		}
		if cats.Supporting {
			w.SupportingPath = root
		}
		if cats.Comments {
			w.CommentsPath = root
		}
	} else {
		if cats.Primary {
			w.PrimaryPath = filepath.Join(root, PrimaryDir)
		}
		if cats.Supporting {
			w.SupportingPath = filepath.Join(root, SupportingDir)
		}
		if cats.Comments {
			w.CommentsPath = filepath.Join(root, CommentsDir)
		}
		for _, dir := range []string{w.PrimaryPath, w.SupportingPath, w.CommentsPath} {
			if dir == "" {
				continue
			}
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create category directory: %w", err)
			}
		}
	}

	log, err := os.OpenFile(filepath.Join(root, LogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	w.log = log
	return w, nil
}

// Logf appends one timestamped line to the run log. Logging failures are
// silent; the run log is best-effort.
func (w *Workspace) Logf(format string, args ...any) {
	if w.log == nil {
		return
	}
	stamp := w.now().Format("01/02/2006 03:04:05 PM")
	fmt.Fprintf(w.log, "[%s] %s\n", stamp, fmt.Sprintf(format, args...))
}

// LogDownload records a completed file write with its on-disk size.
func (w *Workspace) LogDownload(path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.Logf("downloaded %s (size unknown: %v)", filepath.Base(path), err)
		return
	}
	w.Logf("%d bytes\tDownloaded %s", info.Size(), filepath.Base(path))
}

// Relativize strips the workspace root from a path so manifest hyperlinks
// resolve inside the unpacked archive. Sentinels and foreign paths pass
// through untouched.
func (w *Workspace) Relativize(path string) string {
	switch path {
	case "", models.LinkSeeAttached, models.LinkNA:
		return path
	}
	rel, err := filepath.Rel(w.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// PruneEmpty removes category subdirectories that received no files.
func (w *Workspace) PruneEmpty() error {
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		return fmt.Errorf("failed to read workspace root: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(w.Root, entry.Name())
		children, err := os.ReadDir(sub)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", sub, err)
		}
		if len(children) == 0 {
			if err := os.Remove(sub); err != nil {
				return fmt.Errorf("failed to remove empty directory %s: %w", sub, err)
			}
		}
	}
	return nil
}

// CloseLog flushes and closes the run log.
func (w *Workspace) CloseLog() error {
	if w.log == nil {
		return nil
	}
	err := w.log.Close()
	w.log = nil
	return err
}
