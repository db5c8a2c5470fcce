package directory

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"docketsocket/models"
	"docketsocket/pkg/classify"
	"docketsocket/pkg/comments"
	"docketsocket/pkg/download"
	"docketsocket/pkg/regulations"
	"docketsocket/pkg/workspace"
)

// ErrPaginationMismatch signals that the accumulated record count does not
// match the registry's reported total after walking every page.
var ErrPaginationMismatch = errors.New("record count does not match the registry's reported total")

const statusWithdrawn = "Withdrawn"

// Builder walks a docket's records and materializes them into the
// workspace: one classified download per record, one manifest row per
// download, and the running comments document.
type Builder struct {
	client   *regulations.Client
	ws       *workspace.Workspace
	manifest *Manifest
	dl       *download.Downloader
	asm      *comments.Assembler
	running  *comments.Document
	logger   *slog.Logger
}

// NewBuilder wires a Builder for one run.
func NewBuilder(client *regulations.Client, ws *workspace.Workspace, manifest *Manifest, dl *download.Downloader, asm *comments.Assembler, running *comments.Document, logger *slog.Logger) *Builder {
	return &Builder{
		client:   client,
		ws:       ws,
		manifest: manifest,
		dl:       dl,
		asm:      asm,
		running:  running,
		logger:   logger,
	}
}

// Collect walks listing pages at offset = accumulated count until the
// registry's reported total is reached, then sorts the merged sequence by
// document ID so manifest rows are reproducible across runs. firstPage is
// the page the existence pre-check already fetched.
func (b *Builder) Collect(docketID string, firstPage *regulations.ListPage) ([]models.RecordSummary, error) {
	total := firstPage.TotalNumRecords
	records := append([]models.RecordSummary(nil), firstPage.Documents...)

	for len(records) < total {
		page, err := b.client.ListDocuments(docketID, len(records))
		if err != nil {
			return nil, err
		}
		if len(page.Documents) == 0 {
			return nil, fmt.Errorf("%w: empty page at offset %d with %d reported", ErrPaginationMismatch, len(records), total)
		}
		records = append(records, page.Documents...)
	}

	if len(records) != total {
		return nil, fmt.Errorf("%w: accumulated %d, registry reported %d", ErrPaginationMismatch, len(records), total)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].DocumentID < records[j].DocumentID
	})
	b.ws.Logf("Found %d records in the entire directory (includes Primary, Supporting, and Comments)", total)
	return records, nil
}

// Process fetches detail for each non-withdrawn record, dispatches it to
// its classified bucket, and appends one manifest row per match. Records
// matching no requested category are skipped entirely. Per-record failures
// degrade to an "N/A" link; only fatal registry errors propagate.
func (b *Builder) Process(records []models.RecordSummary, want models.CategorySet) error {
	for _, record := range records {
		if record.Status == statusWithdrawn {
			continue
		}

		doc, err := b.client.GetDocument(record.DocumentID)
		if err != nil {
			if errors.Is(err, regulations.ErrNegativeQuota) {
				return err
			}
			b.logger.Warn("detail fetch failed", "document_id", record.DocumentID, "error", err)
			b.ws.Logf("Could not fetch detail for %s: %v", record.DocumentID, err)
			doc = nil
		}

		bucket := classify.Classify(record.DocumentType, want)
		if bucket == classify.None {
			continue
		}

		outcome := models.DownloadOutcome{Link: models.LinkNA}
		if doc != nil {
			switch bucket {
			case classify.Primary:
				outcome, err = b.dl.Record(record.DocumentID, doc, b.ws.PrimaryPath)
			case classify.Supporting:
				outcome, err = b.dl.Record(record.DocumentID, doc, b.ws.SupportingPath)
			case classify.Comment:
				outcome, err = b.asm.Assemble(record.DocumentID, doc, b.running, b.ws.CommentsPath)
			}
			if err != nil {
				return err
			}
		}

		row := b.buildRow(record, doc, outcome)
		if err := b.manifest.Append(row); err != nil {
			return err
		}
	}
	return nil
}

// buildRow assembles one manifest row with workspace-relative links.
func (b *Builder) buildRow(record models.RecordSummary, doc *regulations.Document, outcome models.DownloadOutcome) models.ManifestRow {
	row := models.ManifestRow{
		DocumentID:   record.DocumentID,
		DocumentType: record.DocumentType,
		Link:         b.ws.Relativize(outcome.Link),
	}
	for _, link := range outcome.Attachments {
		row.Attachments = append(row.Attachments, b.ws.Relativize(link))
	}
	if doc == nil {
		return row
	}

	row.Title = doc.Title
	row.Submitter = doc.Submitter
	row.Organization = doc.Organization
	row.AttachmentCount = doc.AttachmentCount
	if posted, ok := parsePostedDate(doc.PostedDate); ok {
		row.PostedDate = posted
		row.HasPostedDate = true
	}
	return row
}

// parsePostedDate truncates the registry's ISO-ish date-time at the day
// boundary. Parse failure leaves the manifest cell blank.
func parsePostedDate(raw string) (time.Time, bool) {
	day, _, found := strings.Cut(raw, "T")
	if !found {
		day = raw
	}
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
