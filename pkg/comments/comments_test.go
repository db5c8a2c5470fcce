package comments

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docketsocket/models"
	"docketsocket/pkg/download"
	"docketsocket/pkg/regulations"
	"docketsocket/pkg/workspace"
)

func TestIsTrivial(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"empty", "", true},
		{"see attached", "See attached", true},
		{"see attached file", "see attached file", true},
		{"see attached files", "SEE ATTACHED FILES", true},
		{"see attached file(s)", "See attached file(s)", true},
		{"whitespace padded", "  see attached  ", true},
		{"html wrapped", "<p>See attached file(s)</p>", true},
		{"entity spacing", "See&nbsp;attached", false},
		{"real comment", "I oppose this rule because...", false},
		{"mentions attachment in passing", "See attached files and also note my objection.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTrivial(tt.body); got != tt.want {
				t.Errorf("IsTrivial(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

// The sentinel written for trivial comments must itself classify as
// trivial.
func TestIsTrivialFixedPoint(t *testing.T) {
	if !IsTrivial(models.LinkSeeAttached) {
		t.Errorf("IsTrivial(%q) = false, want true", models.LinkSeeAttached)
	}
}

func TestFragment(t *testing.T) {
	doc := &regulations.Document{
		Title:        "Comment on Proposed Rule",
		Submitter:    "Jane Doe",
		Organization: "ACME",
		Comment:      "I object.",
	}
	got := Fragment("X-1-0042", doc)

	for _, want := range []string{"<h2>X-1-0042</h2>", "<h3>Comment on Proposed Rule</h3>", "Jane Doe", "ACME", "I object."} {
		if !strings.Contains(got, want) {
			t.Errorf("Fragment() missing %q in %q", want, got)
		}
	}
}

func TestDocumentAppendOnly(t *testing.T) {
	var d Document
	if !d.Empty() {
		t.Error("zero Document should be empty")
	}

	d.Append("first")
	d.Append("second")

	path := filepath.Join(t.TempDir(), "all.html")
	if err := d.Flush(path); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "\nfirst\nsecond" {
		t.Errorf("flushed document = %q", data)
	}
}

func newTestAssembler(t *testing.T) (*Assembler, *workspace.Workspace, string) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "10")
		w.Header().Set("Content-Disposition", `attachment; filename="a.pdf"`)
		_, _ = w.Write([]byte("pdf"))
	}))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := regulations.NewClient(models.RegistryConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		PageSize:       1000,
		BackoffSeconds: 1,
	}, logger)

	ws, err := workspace.Create(t.TempDir(), "X-1", models.CategorySet{Comments: true})
	if err != nil {
		t.Fatalf("workspace.Create() error = %v", err)
	}
	t.Cleanup(func() { _ = ws.CloseLog() })

	return NewAssembler(download.New(client, ws, logger), ws), ws, server.URL
}

func TestAssembleTrivialComment(t *testing.T) {
	asm, ws, server := newTestAssembler(t)
	var running Document

	doc := &regulations.Document{
		Comment: "See attached file(s)",
		Attachments: []regulations.Attachment{
			{FileFormats: []string{server + "/download?documentId=X-1-0005&attachmentNumber=1&contentType=pdf"}},
		},
	}

	outcome, err := asm.Assemble("X-1-0005", doc, &running, ws.CommentsPath)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if outcome.Link != models.LinkSeeAttached {
		t.Errorf("Link = %q, want %q", outcome.Link, models.LinkSeeAttached)
	}
	if !running.Empty() {
		t.Error("trivial comment must not grow the running document")
	}
	if _, err := os.Stat(filepath.Join(ws.CommentsPath, "X-1-0005.html")); !os.IsNotExist(err) {
		t.Error("trivial comment must not produce its own file")
	}
	if len(outcome.Attachments) != 1 {
		t.Errorf("attachments = %v, want 1 (downloaded regardless of triviality)", outcome.Attachments)
	}
}

func TestAssembleRealComment(t *testing.T) {
	asm, ws, _ := newTestAssembler(t)
	var running Document

	doc := &regulations.Document{
		Title:     "Objection",
		Submitter: "Jane Doe",
		Comment:   "I oppose this rule.",
	}

	outcome, err := asm.Assemble("X-1-0006", doc, &running, ws.CommentsPath)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	want := filepath.Join(ws.CommentsPath, "X-1-0006.html")
	if outcome.Link != want {
		t.Errorf("Link = %q, want %q", outcome.Link, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("comment file missing: %v", err)
	}
	if !strings.Contains(string(data), "I oppose this rule.") {
		t.Errorf("comment file content = %q", data)
	}
	if running.Empty() {
		t.Error("non-trivial comment must grow the running document")
	}
}
