// Package directory drives pagination across the registry and builds the
// xlsx manifest of every downloaded record.
package directory

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"docketsocket/models"
)

var manifestHeader = []interface{}{
	"Document ID", "Link", "Document Type", "Document Title",
	"Submitter Name", "Organization Name", "Date Posted", "Attachment Count", "Attachment Link(s)",
}

// Manifest is the append-only xlsx directory for one run. Rows are written
// in discovery order, one per classified record.
type Manifest struct {
	file      *excelize.File
	sheet     string
	path      string
	row       int
	linkStyle int
	dateStyle int
}

// NewManifest creates the workbook with its header row and formats.
func NewManifest(path, docketID string) (*Manifest, error) {
	f := excelize.NewFile()
	sheet := docketID + " Directory"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name manifest sheet: %w", err)
	}

	if err := f.SetColWidth(sheet, "A", "A", float64(len(docketID))*1.4); err != nil {
		return nil, fmt.Errorf("failed to set manifest column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "J", 18); err != nil {
		return nil, fmt.Errorf("failed to set manifest column widths: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	link, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Underline: "single", Color: "0000FF"}})
	if err != nil {
		return nil, fmt.Errorf("failed to create link style: %w", err)
	}
	dateFormat := "mm/dd/yyyy"
	date, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &manifestHeader); err != nil {
		return nil, fmt.Errorf("failed to write manifest header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "I1", bold); err != nil {
		return nil, fmt.Errorf("failed to style manifest header: %w", err)
	}

	return &Manifest{
		file:      f,
		sheet:     sheet,
		path:      path,
		row:       2,
		linkStyle: link,
		dateStyle: date,
	}, nil
}

// Append writes one manifest row. The primary link becomes a HYPERLINK
// formula unless it is the "See attached" sentinel; each attachment link
// gets its own hyperlink cell from column I onward.
func (m *Manifest) Append(r models.ManifestRow) error {
	values := []interface{}{r.DocumentID, nil, r.DocumentType, r.Title, r.Submitter, r.Organization}
	start, _ := excelize.CoordinatesToCellName(1, m.row)
	if err := m.file.SetSheetRow(m.sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write manifest row: %w", err)
	}

	if err := m.setLink(2, r.Link); err != nil {
		return err
	}

	if r.HasPostedDate {
		cell, _ := excelize.CoordinatesToCellName(7, m.row)
		if err := m.file.SetCellValue(m.sheet, cell, r.PostedDate); err != nil {
			return fmt.Errorf("failed to write posted date: %w", err)
		}
		if err := m.file.SetCellStyle(m.sheet, cell, cell, m.dateStyle); err != nil {
			return fmt.Errorf("failed to style posted date: %w", err)
		}
	}

	cell, _ := excelize.CoordinatesToCellName(8, m.row)
	if err := m.file.SetCellValue(m.sheet, cell, r.AttachmentCount); err != nil {
		return fmt.Errorf("failed to write attachment count: %w", err)
	}

	for i, link := range r.Attachments {
		if err := m.setLink(9+i, link); err != nil {
			return err
		}
	}

	m.row++
	return nil
}

// setLink writes a single hyperlink cell, or the sentinel as plain text.
func (m *Manifest) setLink(col int, link string) error {
	cell, _ := excelize.CoordinatesToCellName(col, m.row)
	if link == models.LinkSeeAttached {
		if err := m.file.SetCellValue(m.sheet, cell, link); err != nil {
			return fmt.Errorf("failed to write link sentinel: %w", err)
		}
		return nil
	}
	if err := m.file.SetCellFormula(m.sheet, cell, fmt.Sprintf("HYPERLINK(%q)", link)); err != nil {
		return fmt.Errorf("failed to write hyperlink: %w", err)
	}
	if err := m.file.SetCellStyle(m.sheet, cell, cell, m.linkStyle); err != nil {
		return fmt.Errorf("failed to style hyperlink: %w", err)
	}
	return nil
}

// Rows returns how many rows have been appended.
func (m *Manifest) Rows() int {
	return m.row - 2
}

// Close saves the workbook to its path and releases it.
func (m *Manifest) Close() error {
	if err := m.file.SaveAs(m.path); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return m.file.Close()
}
