// Package classify buckets registry records by document type.
package classify

import "docketsocket/models"

// Reserved document types. Everything else counts as a primary document.
const (
	TypeSupporting = "Supporting & Related Material"
	TypeComment    = "Public Submission"
)

// Bucket is the category a record was classified into, or None when its
// category was not requested.
type Bucket int

const (
	None Bucket = iota
	Primary
	Supporting
	Comment
)

func (b Bucket) String() string {
	switch b {
	case Primary:
		return "primary"
	case Supporting:
		return "supporting"
	case Comment:
		return "comment"
	default:
		return "none"
	}
}

// Classify decides which requested bucket a record falls in. The two
// reserved document types always win their bucket; primary is the negative
// catch-all for every other type, not an enumerated list.
func Classify(documentType string, want models.CategorySet) Bucket {
	switch {
	case want.Comments && documentType == TypeComment:
		return Comment
	case want.Supporting && documentType == TypeSupporting:
		return Supporting
	case want.Primary && documentType != TypeSupporting && documentType != TypeComment:
		return Primary
	default:
		return None
	}
}
