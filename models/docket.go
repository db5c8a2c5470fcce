package models

import (
	"fmt"
	"strings"
	"time"
)

// Manifest link sentinels. LinkSeeAttached marks a comment whose body was
// boilerplate and lives in its attachments; LinkNA marks a failed download.
const (
	LinkSeeAttached = "See attached"
	LinkNA          = "N/A"
)

// CategorySet records which document categories a requester asked for.
type CategorySet struct {
	Primary    bool
	Supporting bool
	Comments   bool
}

// ParseCategories parses a comma-separated category list from the CLI,
// e.g. "primary,comments".
func ParseCategories(s string) (CategorySet, error) {
	var set CategorySet
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "primary":
			set.Primary = true
		case "supporting":
			set.Supporting = true
		case "comments":
			set.Comments = true
		case "":
		default:
			return CategorySet{}, fmt.Errorf("unknown category %q (want primary, supporting, or comments)", part)
		}
	}
	if !set.Any() {
		return CategorySet{}, fmt.Errorf("no categories selected")
	}
	return set, nil
}

// Any reports whether at least one category is selected.
func (c CategorySet) Any() bool {
	return c.Primary || c.Supporting || c.Comments
}

// Count returns the number of selected categories.
func (c CategorySet) Count() int {
	n := 0
	if c.Primary {
		n++
	}
	if c.Supporting {
		n++
	}
	if c.Comments {
		n++
	}
	return n
}

// Tags returns the selected categories as workspace naming tags, in the
// fixed Primary, Supporting, Comments order.
func (c CategorySet) Tags() []string {
	var tags []string
	if c.Primary {
		tags = append(tags, "Primary")
	}
	if c.Supporting {
		tags = append(tags, "Supporting")
	}
	if c.Comments {
		tags = append(tags, "Comments")
	}
	return tags
}

// String returns the lowercase comma-separated form used in logs and the
// run registry.
func (c CategorySet) String() string {
	return strings.ToLower(strings.Join(c.Tags(), ","))
}

// DocketQuery is one validated download request.
type DocketQuery struct {
	DocketID   string
	Categories CategorySet
	Requester  string
}

// RecordSummary is one entry from the paginated documents listing.
type RecordSummary struct {
	DocumentID   string `json:"documentId"`
	DocumentType string `json:"documentType"`
	Status       string `json:"documentStatus"`
}

// DownloadOutcome holds the local links produced for one record. Link is a
// path under the workspace or one of the manifest sentinels.
type DownloadOutcome struct {
	Link        string
	Attachments []string
}

// ManifestRow is one line of the xlsx directory.
type ManifestRow struct {
	DocumentID      string
	Link            string
	DocumentType    string
	Title           string
	Submitter       string
	Organization    string
	PostedDate      time.Time
	HasPostedDate   bool
	AttachmentCount int
	Attachments     []string
}
