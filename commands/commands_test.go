package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/verdant/endorser/endorse"
	"github.com/verdant/endorser/gdrive"
	"github.com/verdant/endorser/ledger"
	"github.com/verdant/endorser/manifest"
)

func TestSpreadsheetID(t *testing.T) {
	tests := map[string]string{
		"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms":           "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
		"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0": "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
	}

	for u, expected := range tests {
		if id, err := spreadsheetID(u); err != nil {
			t.Errorf("Unexpected error for %v (%v)", u, err)
		} else if id != expected {
			t.Errorf("Incorrect spreadsheet ID\n   expected: %v\n   got:      %v", expected, id)
		}
	}

	if _, err := spreadsheetID("https://drive.google.com/drive/folders/abc"); err == nil {
		t.Errorf("Expected error for invalid spreadsheet URL")
	}
}

func TestSourceValidate(t *testing.T) {
	tests := []struct {
		source source
		valid  bool
	}{
		{source{file: "batch.xlsx"}, true},
		{source{url: "https://docs.google.com/spreadsheets/d/abc", area: "A1:D"}, true},
		{source{url: "https://docs.google.com/spreadsheets/d/abc"}, false},
		{source{}, false},
	}

	for _, test := range tests {
		if err := test.source.validate(); (err == nil) != test.valid {
			t.Errorf("Incorrect validation for %+v - expected valid:%v, got %v", test.source, test.valid, err)
		}
	}
}

func TestTokenFile(t *testing.T) {
	tests := map[string]string{
		SHEETS:    filepath.Join("tokens", "credentials.sheets"),
		DRIVE:     filepath.Join("tokens", "credentials.drive"),
		"profile": filepath.Join("tokens", "credentials.tokens"),
	}

	for scope, expected := range tests {
		if file := tokenFile("/etc/endorser/credentials.json", scope, "tokens"); file != expected {
			t.Errorf("Incorrect tokens file for %v\n   expected: %v\n   got:      %v", scope, expected, file)
		}
	}
}

func TestSaveToken(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".google", "credentials.drive")
	token := oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Date(2026, time.October, 18, 12, 30, 0, 0, time.UTC),
	}

	if err := saveToken(file, &token); err != nil {
		t.Fatalf("Unexpected error saving token (%v)", err)
	}

	saved, err := tokenFromFile(file)
	if err != nil {
		t.Fatalf("Unexpected error reading token (%v)", err)
	}

	if saved.AccessToken != token.AccessToken || saved.RefreshToken != token.RefreshToken || !saved.Expiry.Equal(token.Expiry) {
		t.Errorf("Incorrect token\n   expected: %+v\n   got:      %+v", token, *saved)
	}

	if entries, _ := os.ReadDir(filepath.Dir(file)); len(entries) != 1 {
		t.Errorf("Temporary token file not removed - %v entries in tokens directory", len(entries))
	}
}

func TestCallback(t *testing.T) {
	authorised := make(chan string, 1)
	handler := callback("01JAR3X6YV7E9Q8ZB4T5KQ2M1N", authorised)

	rq := httptest.NewRequest(http.MethodGet, "/?state=nope&code=abc", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rq)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Incorrect status for mismatched state - expected %v, got %v", http.StatusBadRequest, w.Code)
	}

	rq = httptest.NewRequest(http.MethodGet, "/?state=01JAR3X6YV7E9Q8ZB4T5KQ2M1N&code=abc", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, rq)

	if w.Code != http.StatusOK {
		t.Errorf("Incorrect status - expected %v, got %v", http.StatusOK, w.Code)
	}

	select {
	case code := <-authorised:
		if code != "abc" {
			t.Errorf("Incorrect authorisation code\n   expected: %v\n   got:      %v", "abc", code)
		}
	default:
		t.Errorf("Authorisation code not passed to channel")
	}
}

func TestLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "workdir")

	l, err := acquire(dir, LOCKFILE)
	if err != nil {
		t.Fatalf("Unexpected error acquiring lock (%v)", err)
	}

	if _, err := acquire(dir, LOCKFILE); err == nil {
		t.Errorf("Expected error acquiring held lock")
	}

	if err := l.release(); err != nil {
		t.Fatalf("Unexpected error releasing lock (%v)", err)
	}

	if l, err := acquire(dir, LOCKFILE); err != nil {
		t.Errorf("Unexpected error re-acquiring released lock (%v)", err)
	} else {
		l.release()
	}
}

func TestMkfolders(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Batch 71")
	subjects := []manifest.Subject{
		{Index: 1, Name: "Alice"},
		{Index: 2, Name: "Bob: Jr"},
	}

	if err := os.MkdirAll(filepath.Join(root, "1_Alice"), 0770); err != nil {
		t.Fatal(err)
	}

	created, err := mkfolders(root, subjects)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if created != 1 {
		t.Errorf("Incorrect number of folders created - expected 1, got %v", created)
	}

	entries, _ := os.ReadDir(root)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}

	expected := []string{"1_Alice", "2_Bob_ Jr"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Incorrect folders\n   expected: %v\n   got:      %v", expected, names)
	}
}

func TestEndorseApply(t *testing.T) {
	cmd := Endorse{
		batch:        "Batch 71",
		stamp:        "approved.png",
		noRasterizer: true,
	}

	config := endorse.DefaultConfig()
	config.Output = "Endorsed"

	cmd.apply(&config)

	if config.Batch != "Batch 71" {
		t.Errorf("Incorrect batch\n   expected: %v\n   got:      %v", "Batch 71", config.Batch)
	}

	if config.Output != "Endorsed" {
		t.Errorf("Configured output overridden by empty flag - got %v", config.Output)
	}

	if config.Stamp.File != "approved.png" {
		t.Errorf("Incorrect stamp file\n   expected: %v\n   got:      %v", "approved.png", config.Stamp.File)
	}

	if !config.Rasterizer.Disabled {
		t.Errorf("Rasterizer not disabled")
	}
}

func TestRender(t *testing.T) {
	started := time.Date(2026, time.October, 18, 9, 15, 0, 0, time.UTC)
	report := endorse.Report{
		ID:       "01JAR3X6YV7E9Q8ZB4T5KQ2M1N",
		Batch:    "Batch 71",
		Output:   "Endorsed",
		Started:  started,
		Finished: started.Add(3 * time.Second),
		Endorsed: []endorse.Outcome{
			{Subject: "1_Alice", Output: "Endorsed/Alice Layout - Endorsed.pdf", LayoutPages: 1, PhotoPages: 2},
		},
		NoOutput: []endorse.Skipped{
			{Subject: "2_Bob", Reason: "no layout document in 2_Bob"},
		},
		Failures: []endorse.PhotoFailure{
			{Subject: "1_Alice", Photo: "c.jpg", Reason: "implausible conversion output"},
		},
	}

	s := render(&report)

	for _, expected := range []string{report.ID, "Endorsed (1)", "1_Alice", "1 layout + 2 photo pages", "No output (1)", "2_Bob", "Photo failures (1)", "c.jpg"} {
		if !strings.Contains(s, expected) {
			t.Errorf("Rendered report missing %q:\n%v", expected, s)
		}
	}
}

func TestRenderRuns(t *testing.T) {
	if s := renderRuns(nil); !strings.Contains(s, "no recorded runs") {
		t.Errorf("Incorrect rendering for empty ledger:\n%v", s)
	}

	runs := []ledger.Run{
		{ID: "01JAR3X6YV7E9Q8ZB4T5KQ2M1N", Batch: "Batch 71", Started: time.Now(), Endorsed: 3, NoOutput: 1, Failures: 2},
	}

	if s := renderRuns(runs); !strings.Contains(s, "01JAR3X6YV7E9Q8ZB4T5KQ2M1N") || !strings.Contains(s, "Batch 71") {
		t.Errorf("Incorrect rendering for runs:\n%v", s)
	}
}

func TestDownload(t *testing.T) {
	mux := http.NewServeMux()

	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/files/")
		files := map[string]map[string]string{
			"photo1": {"id": "photo1", "name": "a.jpg", "mimeType": "image/jpeg"},
			"notes":  {"id": "notes", "name": "notes.txt", "mimeType": "text/plain"},
		}

		f, ok := files[id]
		if !ok {
			http.Error(w, `{"error":{"code":404,"message":"File not found"}}`, http.StatusNotFound)
			return
		}

		if r.URL.Query().Get("alt") == "media" {
			w.Write([]byte("jpeg"))
		} else {
			json.NewEncoder(w).Encode(f)
		}
	})

	mux.HandleFunc("/layouts/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.7\n..."))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	drive, err := gdrive.NewClient(context.Background(), false, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("Error creating Drive client (%v)", err)
	}

	root := t.TempDir()
	subjects := []manifest.Subject{
		{Index: 1, Name: "Alice", DriveLink: "https://drive.google.com/file/d/photo1/view", LayoutLink: srv.URL + "/layouts/" + url.PathEscape("Alice Layout.pdf")},
		{Index: 2, Name: "Bob", DriveLink: "https://drive.google.com/file/d/notes/view"},
		{Index: 3, Name: "Carol", DriveLink: "https://example.com/photos", LayoutLink: "https://example.com/layout.docx"},
	}

	result, err := download(context.Background(), drive, root, subjects, 0)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if result.processed != 3 || result.downloaded != 1 || result.layouts != 1 {
		t.Errorf("Incorrect summary - expected 3 processed, 1 downloaded, 1 layout, got %+v", *result)
	}

	if len(result.failures) != 2 {
		t.Errorf("Incorrect failures - expected 2, got %v", result.failures)
	}

	for _, file := range []string{"1_Alice/a.jpg", "1_Alice/Alice Layout.pdf"} {
		if _, err := os.Stat(filepath.Join(root, file)); err != nil {
			t.Errorf("Expected downloaded file %v (%v)", file, err)
		}
	}

	if entries, _ := os.ReadDir(filepath.Join(root, "2_Bob")); len(entries) != 0 {
		t.Errorf("Unexpected files downloaded for non-image link: %v", entries)
	}
}

func TestRecordCancelledRun(t *testing.T) {
	cmd := Endorse{
		command: command{
			workdir: t.TempDir(),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := time.Date(2026, time.October, 18, 9, 15, 0, 0, time.UTC)
	report := endorse.Report{
		ID:       "01JAR3X6YV7E9Q8ZB4T5KQ2M1N",
		Batch:    "Batch 71",
		Output:   "Endorsed",
		Started:  started,
		Finished: started.Add(time.Second),
		NoOutput: []endorse.Skipped{{Subject: "2_Bob", Reason: "no layout document"}},
	}

	if err := cmd.record(ctx, &report); err != nil {
		t.Fatalf("Unexpected error recording cancelled run (%v)", err)
	}

	db, err := ledger.Open(context.Background(), filepath.Join(cmd.workdir, LEDGER))
	if err != nil {
		t.Fatalf("Error opening ledger (%v)", err)
	}

	defer db.Close()

	if got, err := db.Get(context.Background(), report.ID); err != nil {
		t.Errorf("Cancelled run not recorded (%v)", err)
	} else if len(got.NoOutput) != 1 {
		t.Errorf("Incorrect recorded run: %+v", got)
	}
}
