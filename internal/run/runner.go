// Package run orchestrates one docket download from listing to delivery.
package run

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"docketsocket/models"
	"docketsocket/pkg/archive"
	"docketsocket/pkg/comments"
	"docketsocket/pkg/directory"
	"docketsocket/pkg/download"
	"docketsocket/pkg/notify"
	"docketsocket/pkg/regulations"
	"docketsocket/pkg/scan"
	"docketsocket/pkg/workspace"
)

// Run statuses for the Outcome.
const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

// Outcome is the explicit result of a run, replacing a swallowed exception
// with something the caller can log, persist, and act on.
type Outcome struct {
	Status       string
	Reason       string
	ArchivePath  string
	TotalRecords int
	ManifestRows int
	Quarantined  int
}

// Scanner runs the malware scan against a finished workspace.
type Scanner interface {
	Scan(root string) (scan.Result, error)
}

// Runner holds the collaborators for one docket run.
type Runner struct {
	Config   *models.Config
	Client   *regulations.Client
	Notifier notify.Notifier
	Scanner  Scanner
	Logger   *slog.Logger
}

// Execute runs the whole pipeline for one validated query. firstPage is the
// listing page the existence pre-check already fetched, so it is not fetched
// twice. Any panic or fatal error becomes an aborted Outcome; Execute itself
// never panics.
func (r *Runner) Execute(query models.DocketQuery, firstPage *regulations.ListPage) (outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.Logger.Error("run panicked", "docket_id", query.DocketID, "panic", p)
			outcome = Outcome{Status: StatusAborted, Reason: fmt.Sprintf("panic: %v", p)}
		}
	}()

	err := r.execute(query, firstPage, &outcome)
	if err != nil {
		r.Logger.Error("run aborted", "docket_id", query.DocketID, "error", err)
		outcome.Status = StatusAborted
		outcome.Reason = err.Error()
		return outcome
	}
	outcome.Status = StatusCompleted
	return outcome
}

func (r *Runner) execute(query models.DocketQuery, firstPage *regulations.ListPage, outcome *Outcome) error {
	ws, err := workspace.Create(r.Config.WorkDir, query.DocketID, query.Categories)
	if err != nil {
		return err
	}
	defer ws.CloseLog()
	ws.Logf("Docket socket began downloading %s for %s", query.DocketID, query.Requester)

	manifest, err := directory.NewManifest(filepath.Join(ws.Root, query.DocketID+"_directory.xlsx"), query.DocketID)
	if err != nil {
		return err
	}

	dl := download.New(r.Client, ws, r.Logger)
	running := &comments.Document{}
	builder := directory.NewBuilder(r.Client, ws, manifest, dl, comments.NewAssembler(dl, ws), running, r.Logger)

	records, err := builder.Collect(query.DocketID, firstPage)
	if err != nil {
		return err
	}
	outcome.TotalRecords = len(records)

	if err := builder.Process(records, query.Categories); err != nil {
		return err
	}
	outcome.ManifestRows = manifest.Rows()

	if query.Categories.Comments {
		if err := running.Flush(filepath.Join(ws.Root, query.DocketID+"_all_comments.html")); err != nil {
			return err
		}
	}

	if err := ws.PruneEmpty(); err != nil {
		r.Logger.Warn("failed to prune empty directories", "error", err)
	}
	if err := manifest.Close(); err != nil {
		return err
	}
	if err := ws.CloseLog(); err != nil {
		r.Logger.Warn("failed to close workspace log", "error", err)
	}

	result, err := r.Scanner.Scan(ws.Root)
	if err != nil {
		return err
	}
	outcome.Quarantined = len(result.Quarantined)
	if err := scan.Verify(result); err != nil {
		return err
	}
	if len(result.Quarantined) > 0 {
		subject, body := notify.QuarantineAlert(filepath.Join(ws.Root, workspace.QuarantineDir), result.Quarantined)
		recipients := []string{query.Requester, r.Config.OperatorEmail}
		if err := r.Notifier.Notify(subject, body, recipients); err != nil {
			r.Logger.Warn("failed to send quarantine alert", "error", err)
		}
	}

	zipPath, err := archive.Zip(ws.Root)
	if err != nil {
		return err
	}
	name, err := archive.Stage(zipPath, r.Config.Delivery.Dir)
	if err != nil {
		return err
	}
	outcome.ArchivePath = filepath.Join(r.Config.Delivery.Dir, name)

	subject, body := notify.CompletionNotice(r.Config.Delivery.URLPrefix + name)
	if err := r.Notifier.Notify(subject, body, []string{query.Requester}); err != nil {
		r.Logger.Warn("failed to send completion notice", "error", err)
	}

	r.Logger.Info("run completed",
		"docket_id", query.DocketID,
		"records", outcome.TotalRecords,
		"manifest_rows", outcome.ManifestRows,
		"quarantined", outcome.Quarantined,
		"archive", outcome.ArchivePath)
	return nil
}
