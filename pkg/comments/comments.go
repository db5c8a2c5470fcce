// Package comments assembles public submission records: per-comment HTML
// files, the boilerplate-body filter, and the append-only running document
// that collects every non-trivial comment for a run.
package comments

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"docketsocket/models"
	"docketsocket/pkg/download"
	"docketsocket/pkg/regulations"
	"docketsocket/pkg/workspace"
)

// trivialBodies are boilerplate comment texts that carry no content beyond
// pointing at the record's attachments.
var trivialBodies = map[string]struct{}{
	"":                     {},
	"see attached":         {},
	"see attached file":    {},
	"see attached files":   {},
	"see attached file(s)": {},
}

// IsTrivial reports whether a comment body is boilerplate. Markup and
// entities are stripped first, so an HTML-wrapped "See attached" still
// counts as trivial. The sentinel produced for trivial comments is itself
// trivial.
func IsTrivial(body string) bool {
	text := body
	if strings.ContainsAny(body, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
			text = doc.Text()
		}
	}
	_, ok := trivialBodies[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Fragment renders one comment with its submitter metadata as an HTML
// fragment.
func Fragment(documentID string, doc *regulations.Document) string {
	return fmt.Sprintf("<h2>%s</h2><h3>%s</h3><b>Submitter Name:</b> %s <b>Organization Name:</b> %s<br><b>Comment: </b>%s",
		documentID, doc.Title, doc.Submitter, doc.Organization, doc.Comment)
}

// Document is the append-only running collection of non-trivial comments.
// It only ever grows; the zero value is ready to use.
type Document struct {
	buf strings.Builder
}

// Append adds one comment fragment to the running document.
func (d *Document) Append(fragment string) {
	d.buf.WriteString("\n")
	d.buf.WriteString(fragment)
}

// Empty reports whether any comment has been appended.
func (d *Document) Empty() bool {
	return d.buf.Len() == 0
}

// Flush writes the accumulated document to path. An empty document still
// produces a file so the deliverable layout is stable.
func (d *Document) Flush(path string) error {
	if err := os.WriteFile(path, []byte(d.buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write comments document: %w", err)
	}
	return nil
}

// Assembler specializes content download for comment records.
type Assembler struct {
	downloader *download.Downloader
	ws         *workspace.Workspace
}

// NewAssembler creates an Assembler sharing the run's downloader and
// workspace.
func NewAssembler(downloader *download.Downloader, ws *workspace.Workspace) *Assembler {
	return &Assembler{downloader: downloader, ws: ws}
}

// Assemble writes a non-trivial comment as its own HTML file and appends it
// to the running document. A trivial body produces neither; its manifest
// link becomes the "See attached" sentinel so the reader looks at the
// attachments instead. Attachments are downloaded either way.
func (a *Assembler) Assemble(documentID string, doc *regulations.Document, running *Document, destDir string) (models.DownloadOutcome, error) {
	outcome := models.DownloadOutcome{Link: models.LinkSeeAttached}

	if !IsTrivial(doc.Comment) {
		fragment := Fragment(documentID, doc)
		path := filepath.Join(destDir, documentID+".html")
		if err := os.WriteFile(path, []byte(fragment), 0600); err != nil {
			a.ws.Logf("Could not write %s.html: %v", documentID, err)
			outcome.Link = models.LinkNA
		} else {
			running.Append(fragment)
			a.ws.LogDownload(path)
			outcome.Link = path
		}
	}

	for _, attachment := range doc.Attachments {
		links, err := a.downloader.Files(attachment.FileFormats, destDir)
		if err != nil {
			return outcome, err
		}
		outcome.Attachments = append(outcome.Attachments, links...)
	}
	return outcome, nil
}
