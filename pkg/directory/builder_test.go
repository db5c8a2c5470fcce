package directory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"docketsocket/models"
	"docketsocket/pkg/comments"
	"docketsocket/pkg/download"
	"docketsocket/pkg/regulations"
	"docketsocket/pkg/workspace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBuilder(t *testing.T, handler http.Handler, cats models.CategorySet) (*Builder, *workspace.Workspace, *Manifest, *comments.Document) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := testLogger()
	client := regulations.NewClient(models.RegistryConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		PageSize:       1000,
		BackoffSeconds: 1,
	}, logger)

	ws, err := workspace.Create(t.TempDir(), "FAA-2021-0001", cats)
	if err != nil {
		t.Fatalf("workspace.Create() error = %v", err)
	}
	t.Cleanup(func() { _ = ws.CloseLog() })

	manifest, err := NewManifest(filepath.Join(ws.Root, "FAA-2021-0001_directory.xlsx"), "FAA-2021-0001")
	if err != nil {
		t.Fatalf("NewManifest() error = %v", err)
	}

	dl := download.New(client, ws, logger)
	running := &comments.Document{}
	builder := NewBuilder(client, ws, manifest, dl, comments.NewAssembler(dl, ws), running, logger)
	return builder, ws, manifest, running
}

func listHandler(total int, perPage int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "10")
		offset := 0
		fmt.Sscanf(r.URL.Query().Get("po"), "%d", &offset)
		fmt.Fprintf(w, `{"totalNumRecords": %d, "documents": [`, total)
		for i := 0; i < perPage && offset+i < total; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			// Descending IDs so the sort is observable.
			fmt.Fprintf(w, `{"documentId": "FAA-2021-0001-%04d", "documentType": "Rule", "documentStatus": "Posted"}`, total-(offset+i))
		}
		fmt.Fprint(w, `]}`)
	}
}

func TestCollectPaginates(t *testing.T) {
	total := 2500
	listCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/documents.json", func(w http.ResponseWriter, r *http.Request) {
		listCalls++
		listHandler(total, 1000)(w, r)
	})
	builder, _, _, _ := newTestBuilder(t, mux, models.CategorySet{Primary: true})

	// Simulate the pre-check having fetched page one already.
	first, err := builder.client.ListDocuments("FAA-2021-0001", 0)
	if err != nil {
		t.Fatalf("first page fetch error = %v", err)
	}

	records, err := builder.Collect("FAA-2021-0001", first)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(records) != total {
		t.Errorf("collected %d records, want %d", len(records), total)
	}
	// One fetch per page: ceil(2500/1000) = 3.
	if listCalls != 3 {
		t.Errorf("listing fetch calls = %d, want 3", listCalls)
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].DocumentID > records[i].DocumentID {
			t.Fatalf("records not sorted at %d: %q > %q", i, records[i-1].DocumentID, records[i].DocumentID)
		}
	}
}

func TestCollectMismatchIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/documents.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "10")
		// Registry claims 5 records but has none past the first page.
		fmt.Fprint(w, `{"totalNumRecords": 5, "documents": []}`)
	})
	builder, _, _, _ := newTestBuilder(t, mux, models.CategorySet{Primary: true})

	first := &regulations.ListPage{
		TotalNumRecords: 5,
		Documents: []models.RecordSummary{
			{DocumentID: "FAA-2021-0001-0001", DocumentType: "Rule", Status: "Posted"},
		},
	}
	_, err := builder.Collect("FAA-2021-0001", first)
	if !errors.Is(err, ErrPaginationMismatch) {
		t.Errorf("Collect() error = %v, want ErrPaginationMismatch", err)
	}
}

// Scenario from the pipeline's contract: a trivial comment, a supporting
// document, and a withdrawn primary yield exactly two manifest rows and an
// untouched running comments document.
func TestProcessScenario(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/document.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "10")
		id := r.URL.Query().Get("documentId")
		switch id {
		case "FAA-2021-0001-0001":
			fmt.Fprintf(w, `{
				"title": {"value": "Trivial Comment"},
				"submitterName": {"value": "Jane Doe"},
				"comment": {"value": "See attached"},
				"postedDate": "2021-03-04T00:00:00-05:00",
				"attachmentCount": {"value": 1},
				"attachments": [{"fileFormats": ["%s"]}]
			}`, "http://"+r.Host+"/download?documentId=FAA-2021-0001-0001&attachmentNumber=1&contentType=pdf")
		case "FAA-2021-0001-0002":
			fmt.Fprintf(w, `{
				"title": {"value": "Supporting Study"},
				"postedDate": "2021-03-05T00:00:00-05:00",
				"fileFormats": ["%s"]
			}`, "http://"+r.Host+"/download?documentId=FAA-2021-0001-0002&contentType=pdf")
		default:
			t.Errorf("unexpected detail fetch for %s", id)
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "10")
		w.Header().Set("Content-Disposition", `attachment; filename="f.pdf"`)
		fmt.Fprint(w, "pdf")
	})

	all := models.CategorySet{Primary: true, Supporting: true, Comments: true}
	builder, ws, manifest, running := newTestBuilder(t, mux, all)

	records := []models.RecordSummary{
		{DocumentID: "FAA-2021-0001-0001", DocumentType: "Public Submission", Status: "Posted"},
		{DocumentID: "FAA-2021-0001-0002", DocumentType: "Supporting & Related Material", Status: "Posted"},
		{DocumentID: "FAA-2021-0001-0003", DocumentType: "Rule", Status: "Withdrawn"},
	}

	if err := builder.Process(records, all); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if manifest.Rows() != 2 {
		t.Errorf("manifest rows = %d, want 2", manifest.Rows())
	}
	if !running.Empty() {
		t.Error("running comments document must stay empty for a trivial comment")
	}

	if err := manifest.Close(); err != nil {
		t.Fatalf("manifest.Close() error = %v", err)
	}
	f, err := excelize.OpenFile(filepath.Join(ws.Root, "FAA-2021-0001_directory.xlsx"))
	if err != nil {
		t.Fatalf("failed to reopen manifest: %v", err)
	}
	defer f.Close()
	sheet := "FAA-2021-0001 Directory"

	link, err := f.GetCellValue(sheet, "B2")
	if err != nil {
		t.Fatal(err)
	}
	if link != models.LinkSeeAttached {
		t.Errorf("comment row link = %q, want %q", link, models.LinkSeeAttached)
	}

	formula, err := f.GetCellFormula(sheet, "B3")
	if err != nil {
		t.Fatal(err)
	}
	if formula == "" {
		t.Error("supporting row should carry a HYPERLINK formula")
	}
}

func TestProcessSkipsUnrequested(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/document.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "10")
		fmt.Fprint(w, `{"title": {"value": "A Rule"}}`)
	})
	builder, _, manifest, _ := newTestBuilder(t, mux, models.CategorySet{Comments: true})

	records := []models.RecordSummary{
		{DocumentID: "FAA-2021-0001-0004", DocumentType: "Rule", Status: "Posted"},
	}
	if err := builder.Process(records, models.CategorySet{Comments: true}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if manifest.Rows() != 0 {
		t.Errorf("manifest rows = %d, want 0 for unmatched record", manifest.Rows())
	}
}

func TestParsePostedDate(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
		want   string
	}{
		{"iso with offset", "2013-05-02T00:00:00-04:00", true, "2013-05-02"},
		{"bare date", "2013-05-02", true, "2013-05-02"},
		{"empty", "", false, ""},
		{"garbage", "last tuesday", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePostedDate(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("parsePostedDate(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("parsePostedDate(%q) = %s, want %s", tt.raw, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}
