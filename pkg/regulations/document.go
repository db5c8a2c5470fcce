package regulations

import (
	"encoding/json"
	"strconv"
)

// Document is the full metadata for one registry record. Most registry
// fields arrive wrapped as {"label": ..., "value": ...}; the wrapper is
// unwrapped during decoding and missing fields decode to their zero value.
type Document struct {
	Title           string
	Submitter       string
	Organization    string
	PostedDate      string
	Abstract        string
	Comment         string
	RestrictReason  string
	AttachmentCount int
	FileFormats     []string
	Attachments     []Attachment
}

// Attachment is a secondary file bundled with a record, available in one or
// more file formats.
type Attachment struct {
	FileFormats []string `json:"fileFormats"`
}

// valueField decodes the registry's {"label", "value"} wrapper. Anything
// that is not an object with a usable value decodes to the zero string, the
// same way a missing field does.
type valueField struct {
	value any
}

func (f *valueField) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		// Bare values and nulls are treated as absent.
		return nil
	}
	f.value = wrapped.Value
	return nil
}

func (f valueField) String() string {
	s, _ := f.value.(string)
	return s
}

// Int converts a numeric or numeric-string value; anything else is zero.
func (f valueField) Int() int {
	switch v := f.value.(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title           valueField   `json:"title"`
		SubmitterName   valueField   `json:"submitterName"`
		Organization    valueField   `json:"organization"`
		PostedDate      string       `json:"postedDate"`
		Abstract        valueField   `json:"abstract"`
		Comment         valueField   `json:"comment"`
		RestrictReason  valueField   `json:"restrictReason"`
		AttachmentCount valueField   `json:"attachmentCount"`
		FileFormats     []string     `json:"fileFormats"`
		Attachments     []Attachment `json:"attachments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Title = raw.Title.String()
	d.Submitter = raw.SubmitterName.String()
	d.Organization = raw.Organization.String()
	d.PostedDate = raw.PostedDate
	d.Abstract = raw.Abstract.String()
	d.Comment = raw.Comment.String()
	d.RestrictReason = raw.RestrictReason.String()
	d.AttachmentCount = raw.AttachmentCount.Int()
	d.FileFormats = raw.FileFormats
	d.Attachments = raw.Attachments
	return nil
}
