// Package download writes registry file formats into the workspace. File
// names are derived from three independent pieces: the extension from the
// Content-Disposition header, and the document ID and attachment ordinal
// from the download URL's query parameters.
package download

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"docketsocket/models"
	"docketsocket/pkg/regulations"
	"docketsocket/pkg/workspace"
)

// errNoDisposition marks a response with no Content-Disposition header.
// Such entries are skipped outright rather than recorded as failures.
var errNoDisposition = errors.New("response has no Content-Disposition header")

// Downloader fetches record content through the rate-limited client and
// writes it under the workspace.
type Downloader struct {
	client *regulations.Client
	ws     *workspace.Workspace
	logger *slog.Logger
}

// New creates a Downloader bound to one run's workspace.
func New(client *regulations.Client, ws *workspace.Workspace, logger *slog.Logger) *Downloader {
	return &Downloader{client: client, ws: ws, logger: logger}
}

// extensionFromDisposition pulls the filename extension out of a
// Content-Disposition header.
func extensionFromDisposition(header string) (string, error) {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("unparseable Content-Disposition %q: %w", header, err)
	}
	ext := filepath.Ext(params["filename"])
	if ext == "" {
		return "", fmt.Errorf("no file extension in Content-Disposition %q", header)
	}
	return ext, nil
}

// parseDownloadURL extracts the documentId and optional attachmentNumber
// query parameters. attachmentNumber is absent for a record's primary file,
// reported as zero.
func parseDownloadURL(raw string) (documentID string, attachment int, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("unparseable download URL %q: %w", raw, err)
	}
	query := u.Query()
	documentID = query.Get("documentId")
	if documentID == "" {
		return "", 0, fmt.Errorf("no documentId in download URL %q", raw)
	}
	if s := query.Get("attachmentNumber"); s != "" {
		attachment, err = strconv.Atoi(s)
		if err != nil {
			return "", 0, fmt.Errorf("bad attachmentNumber in download URL %q: %w", raw, err)
		}
	}
	return documentID, attachment, nil
}

// fileName derives "<documentID>[_<n>]<ext>" for one downloaded file.
func fileName(fileFormatURL, disposition string) (string, error) {
	ext, err := extensionFromDisposition(disposition)
	if err != nil {
		return "", err
	}
	documentID, attachment, err := parseDownloadURL(fileFormatURL)
	if err != nil {
		return "", err
	}
	if attachment > 0 {
		return fmt.Sprintf("%s_%d%s", documentID, attachment, ext), nil
	}
	return documentID + ext, nil
}

// file downloads one file format URL into destDir and returns the written
// path.
func (d *Downloader) file(fileFormatURL, destDir string) (string, error) {
	resp, err := d.client.Download(fileFormatURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	disposition := resp.Header.Get("Content-Disposition")
	if disposition == "" {
		return "", errNoDisposition
	}

	name, err := fileName(fileFormatURL, disposition)
	if err != nil {
		return "", err
	}

	path := filepath.Join(destDir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	d.ws.LogDownload(path)
	return path, nil
}

// Files downloads every URL in the list into destDir. A missing
// Content-Disposition skips the entry; any other per-file failure is logged
// and recorded as "N/A" in that position. One bad file never aborts the
// batch; only a fatal quota violation propagates.
func (d *Downloader) Files(fileFormats []string, destDir string) ([]string, error) {
	var files []string
	for _, fileFormat := range fileFormats {
		path, err := d.file(fileFormat, destDir)
		if err != nil {
			if errors.Is(err, regulations.ErrNegativeQuota) {
				return files, err
			}
			if errors.Is(err, errNoDisposition) {
				d.ws.Logf("Filetype not found for %s", fileFormat)
				d.logger.Warn("no content disposition, skipping", "url", fileFormat)
				continue
			}
			d.ws.Logf("Could not download %s: %v", fileFormat, err)
			d.logger.Warn("file download failed", "url", fileFormat, "error", err)
			files = append(files, models.LinkNA)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// Record downloads one record's canonical formats, its abstract when
// present, and every nested attachment, flattening attachment links into
// one ordered sequence. Records carrying a restriction reason (usually
// duplicates) get no primary formats.
func (d *Downloader) Record(documentID string, doc *regulations.Document, destDir string) (models.DownloadOutcome, error) {
	outcome := models.DownloadOutcome{Link: models.LinkNA}

	if doc.RestrictReason == "" {
		links, err := d.Files(doc.FileFormats, destDir)
		if err != nil {
			return outcome, err
		}
		if len(links) > 0 {
			outcome.Link = links[0]
		} else {
			d.ws.Logf("%s not downloaded", documentID)
		}
	} else {
		d.ws.Logf("%s restricted (%s), content not downloaded", documentID, doc.RestrictReason)
	}

	if doc.Abstract != "" {
		path := filepath.Join(destDir, documentID+"_abstract.html")
		if err := os.WriteFile(path, []byte(doc.Abstract), 0600); err != nil {
			d.ws.Logf("Could not write abstract for %s: %v", documentID, err)
			d.logger.Warn("abstract write failed", "document_id", documentID, "error", err)
		} else {
			d.ws.LogDownload(path)
		}
	}

	for _, attachment := range doc.Attachments {
		links, err := d.Files(attachment.FileFormats, destDir)
		if err != nil {
			return outcome, err
		}
		outcome.Attachments = append(outcome.Attachments, links...)
	}
	return outcome, nil
}
