package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/storage"
)

var ctx = context.Background()

// resetFlags restores every flag in the command tree to its default so
// consecutive Execute calls do not leak values.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace([]string{})
		} else if f.Value.Type() != "stringToString" {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupCLI points config and storage at temp dirs.
func setupCLI(t *testing.T) string {
	t.Helper()
	dataDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DOCVAULT_STORAGE_DATA_DIR", dataDir)
	t.Setenv("DOCVAULT_LOG_LEVEL", "error")
	t.Setenv("NO_COLOR", "1")
	return dataDir
}

// execute runs the root command and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	noColor = true

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	oldStdout := os.Stdout
	os.Stdout = w

	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()

	w.Close()
	os.Stdout = oldStdout
	out, _ := io.ReadAll(r)
	rootCmd.SetArgs(nil)
	return string(out), execErr
}

// captureStderr returns what fn wrote to os.Stderr.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	oldStderr := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = oldStderr }()

	fn()
	w.Close()
	out, _ := io.ReadAll(r)
	return string(out)
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("docvault %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func openDataStore(t *testing.T, dataDir string) *storage.Store {
	t.Helper()
	s, err := storage.Open(dataDir)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDocsCreateListShow(t *testing.T) {
	setupCLI(t)

	out := mustExecute(t, "docs", "create", "--title", "Supply contract", "--type", "contract",
		"--counterparty", "Acme", "--tags", "supply,2026", "--amount", "1500.5")
	var doc model.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("parsing create output: %v\n%s", err, out)
	}
	if doc.Status != model.StatusDraft || doc.Counterparty != "Acme" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.Amount == nil || *doc.Amount != 1500.5 {
		t.Errorf("amount = %v, want 1500.5", doc.Amount)
	}
	if len(doc.Tags) != 2 {
		t.Errorf("tags = %v", doc.Tags)
	}

	out = mustExecute(t, "docs", "list", "--search", "acme")
	var docs []model.Document
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatalf("parsing list output: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != doc.ID {
		t.Errorf("list = %+v", docs)
	}

	out = mustExecute(t, "docs", "list", "--type", "claim")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("filtered list = %s, want []", out)
	}

	out = mustExecute(t, "docs", "list", "--table")
	if !strings.Contains(out, doc.ID) || !strings.Contains(out, "Supply contract") {
		t.Errorf("table output = %q", out)
	}
}

func TestDocsCreate_ValidationError(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "docs", "create", "--title", "x", "--type", "memo")
	if err == nil || !strings.Contains(err.Error(), "Invalid document") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDocsCreate_WithContent(t *testing.T) {
	dataDir := setupCLI(t)

	const raw = `Tom's "v1" text: a < b & c`
	out := mustExecute(t, "docs", "create", "--title", "Memo", "--type", "other", "--content", raw)
	var doc model.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("parsing create output: %v\n%s", err, out)
	}
	if len(doc.Versions) != 1 || doc.Versions[0].Note != "Initial version" {
		t.Fatalf("versions = %+v, want one initial version", doc.Versions)
	}

	s := openDataStore(t, dataDir)
	var stored model.Document
	if err := s.Get(ctx, storage.Documents, doc.ID, &stored); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.CurrentContent != raw {
		t.Errorf("CurrentContent = %q, want %q", stored.CurrentContent, raw)
	}
	if stored.Versions[0].Content != raw {
		t.Errorf("version content = %q, want %q", stored.Versions[0].Content, raw)
	}
}

func TestDocsCreate_ContentFile(t *testing.T) {
	setupCLI(t)

	path := filepath.Join(t.TempDir(), "claim.html")
	if err := os.WriteFile(path, []byte("<p>Claim {{amount}}</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := mustExecute(t, "docs", "create", "--title", "Claim", "--type", "claim", "--content-file", path)
	var doc model.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("parsing create output: %v\n%s", err, out)
	}
	if doc.CurrentContent != "<p>Claim {{amount}}</p>" {
		t.Errorf("CurrentContent = %q", doc.CurrentContent)
	}
}

func TestDocsUpdate_OnlyChangedFlags(t *testing.T) {
	dataDir := setupCLI(t)

	out := mustExecute(t, "docs", "create", "--title", "Lease", "--type", "agreement", "--counterparty", "Acme")
	var doc model.Document
	json.Unmarshal([]byte(out), &doc)

	mustExecute(t, "docs", "update", doc.ID, "--status", "active", "--content", "<p>Body</p>")

	s := openDataStore(t, dataDir)
	var got model.Document
	if err := s.Get(ctx, storage.Documents, doc.ID, &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusActive {
		t.Errorf("status = %q", got.Status)
	}
	if got.Counterparty != "Acme" || got.Title != "Lease" {
		t.Errorf("unchanged fields were modified: %+v", got)
	}
	if got.CurrentContent != "<p>Body</p>" {
		t.Errorf("currentContent = %q", got.CurrentContent)
	}
}

func TestDocsShowMarkdown(t *testing.T) {
	setupCLI(t)

	out := mustExecute(t, "docs", "create", "--title", "Memo", "--type", "other")
	var doc model.Document
	json.Unmarshal([]byte(out), &doc)
	mustExecute(t, "versions", "add", doc.ID, "--content", "<h1>Title</h1><p>Some <strong>bold</strong> text</p>")

	out = mustExecute(t, "docs", "show", doc.ID, "--markdown")
	if !strings.Contains(out, "# Title") || !strings.Contains(out, "**bold**") {
		t.Errorf("markdown output = %q", out)
	}
}

func TestVersionsAndRevert(t *testing.T) {
	setupCLI(t)

	out := mustExecute(t, "docs", "create", "--title", "Contract", "--type", "contract")
	var doc model.Document
	json.Unmarshal([]byte(out), &doc)

	contentFile := filepath.Join(t.TempDir(), "v1.html")
	os.WriteFile(contentFile, []byte("first"), 0o644)
	mustExecute(t, "versions", "add", doc.ID, "--content-file", contentFile, "--note", "draft")
	mustExecute(t, "versions", "add", doc.ID, "--content", "second")

	out = mustExecute(t, "versions", "list", doc.ID)
	var versions []model.DocumentVersion
	if err := json.Unmarshal([]byte(out), &versions); err != nil {
		t.Fatalf("parsing versions: %v", err)
	}
	if len(versions) != 2 || versions[0].Content != "first" {
		t.Fatalf("versions = %+v", versions)
	}

	mustExecute(t, "versions", "revert", doc.ID, versions[0].ID)

	out = mustExecute(t, "versions", "list", doc.ID)
	json.Unmarshal([]byte(out), &versions)
	if len(versions) != 3 || versions[2].Content != "first" || versions[2].VersionNumber != 3 {
		t.Errorf("after revert = %+v", versions)
	}
}

func TestComments(t *testing.T) {
	setupCLI(t)

	out := mustExecute(t, "docs", "create", "--title", "Case", "--type", "case")
	var doc model.Document
	json.Unmarshal([]byte(out), &doc)

	mustExecute(t, "comments", "add", doc.ID, "Check", "clause", "4", "--author", "Ivan")
	out = mustExecute(t, "comments", "list", doc.ID)
	var comments []model.Comment
	json.Unmarshal([]byte(out), &comments)
	if len(comments) != 1 || comments[0].Text != "Check clause 4" || comments[0].Author != "Ivan" {
		t.Errorf("comments = %+v", comments)
	}
}

func TestTemplatesGenerate(t *testing.T) {
	dataDir := setupCLI(t)

	mustExecute(t, "templates", "create", "--name", "NDA", "--content", "Between {{party}} and {{other}}")

	out := mustExecute(t, "templates", "list")
	var templates []model.Template
	if err := json.Unmarshal([]byte(out), &templates); err != nil {
		t.Fatalf("parsing templates: %v", err)
	}
	if len(templates) != 1 || len(templates[0].Fields) != 2 {
		t.Fatalf("templates = %+v", templates)
	}

	stderr := captureStderr(t, func() {
		mustExecute(t, "templates", "generate", templates[0].ID,
			"--title", "NDA Acme", "--type", "agreement", "--field", "party=Acme")
	})
	if !strings.Contains(stderr, "Left unfilled: other") {
		t.Errorf("stderr = %q, want unfilled field warning", stderr)
	}

	s := openDataStore(t, dataDir)
	raw, err := s.GetAll(ctx, storage.Documents)
	if err != nil || len(raw) != 1 {
		t.Fatalf("documents = %d, err = %v", len(raw), err)
	}
	var doc model.Document
	json.Unmarshal(raw[0], &doc)
	if doc.CurrentContent != "Between Acme and {{other}}" || doc.Status != model.StatusActive {
		t.Errorf("generated = %+v", doc)
	}
}

func TestSettingsUpdateAndShow(t *testing.T) {
	setupCLI(t)

	if _, err := execute(t, "settings", "show"); err == nil || !strings.Contains(err.Error(), "Settings not found") {
		t.Fatalf("expected not found on fresh store, got %v", err)
	}

	mustExecute(t, "settings", "update", "--enable-ocr=false", "--expertise-types", "Construction,Valuation")

	out := mustExecute(t, "settings", "show", "-o", "yaml")
	if !strings.Contains(out, "enableOCR: false") || !strings.Contains(out, "Valuation") {
		t.Errorf("yaml settings = %q", out)
	}
}

func TestExportImport(t *testing.T) {
	setupCLI(t)

	mustExecute(t, "docs", "create", "--title", "Keep", "--type", "other")
	exportPath := filepath.Join(t.TempDir(), "backup.json")
	mustExecute(t, "export", "--file", exportPath)

	mustExecute(t, "docs", "create", "--title", "Drop", "--type", "other")

	// Without --confirm nothing happens.
	mustExecute(t, "import", exportPath)
	out := mustExecute(t, "docs", "list")
	var docs []model.Document
	json.Unmarshal([]byte(out), &docs)
	if len(docs) != 2 {
		t.Fatalf("import without confirm changed data: %d docs", len(docs))
	}

	mustExecute(t, "import", exportPath, "--confirm")
	out = mustExecute(t, "docs", "list")
	json.Unmarshal([]byte(out), &docs)
	if len(docs) != 1 || docs[0].Title != "Keep" {
		t.Errorf("after import = %+v", docs)
	}
}

func TestImport_BadFile(t *testing.T) {
	setupCLI(t)

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"documents": 42}`), 0o644)
	_, err := execute(t, "import", path, "--confirm")
	if err == nil || !strings.Contains(err.Error(), "Invalid import file") {
		t.Fatalf("expected import format error, got %v", err)
	}
}

func TestFilesUploadRecognize(t *testing.T) {
	dataDir := setupCLI(t)

	out := mustExecute(t, "docs", "create", "--title", "Scan", "--type", "case")
	var doc model.Document
	json.Unmarshal([]byte(out), &doc)

	path := filepath.Join(t.TempDir(), "page.html")
	os.WriteFile(path, []byte("<html><body><p>Hello</p><p>court</p></body></html>"), 0o644)
	mustExecute(t, "files", "upload", path, "--document", doc.ID)

	s := openDataStore(t, dataDir)
	raw, err := s.GetAll(ctx, storage.Files)
	if err != nil || len(raw) != 1 {
		t.Fatalf("files = %d, err = %v", len(raw), err)
	}
	var file model.FileUpload
	json.Unmarshal(raw[0], &file)
	if !strings.HasPrefix(file.Type, "text/html") {
		t.Errorf("detected type = %q", file.Type)
	}

	out = mustExecute(t, "files", "recognize", file.ID)
	if strings.TrimSpace(out) != "Hello\ncourt" {
		t.Errorf("recognized = %q", out)
	}

	out = mustExecute(t, "files", "show", file.ID)
	if strings.Contains(out, `"data"`) {
		t.Errorf("show printed file contents: %s", out)
	}
	savePath := filepath.Join(t.TempDir(), "copy.html")
	mustExecute(t, "files", "show", file.ID, "--save", savePath)
	if saved, _ := os.ReadFile(savePath); !bytes.Contains(saved, []byte("court")) {
		t.Errorf("saved contents = %q", saved)
	}
}

func TestOCRLocalFiles(t *testing.T) {
	setupCLI(t)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	os.WriteFile(a, []byte("alpha"), 0o644)
	os.WriteFile(b, []byte("beta"), 0o644)

	out := mustExecute(t, "ocr", a, b)
	if !strings.Contains(out, "alpha") || !strings.Contains(out, "beta") {
		t.Errorf("ocr output = %q", out)
	}
	if strings.Index(out, "alpha") > strings.Index(out, "beta") {
		t.Errorf("ocr output out of order: %q", out)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	setupCLI(t)

	mustExecute(t, "config", "set", "server.port", "4555")
	out := mustExecute(t, "config", "show")
	if !strings.Contains(out, "server.port = 4555") {
		t.Errorf("config show = %q", out)
	}

	if _, err := execute(t, "config", "set", "nope", "1"); err == nil || !strings.Contains(err.Error(), "valid keys") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	setupCLI(t)

	if _, err := execute(t, "docs", "list", "-o", "xml"); err == nil {
		t.Fatal("expected error for -o xml")
	}
}

func TestParseDateFlag(t *testing.T) {
	from, err := parseDateFlag("2026-03-01", false)
	if err != nil {
		t.Fatal(err)
	}
	if !from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", from)
	}

	to, err := parseDateFlag("2026-03-01", true)
	if err != nil {
		t.Fatal(err)
	}
	if to.Day() != 1 || to.Hour() != 23 {
		t.Errorf("to = %v, want end of day", to)
	}

	if _, err := parseDateFlag("2026-03-01T10:00:00Z", true); err != nil {
		t.Errorf("RFC 3339 rejected: %v", err)
	}
	if _, err := parseDateFlag("March 1", false); err == nil {
		t.Error("expected error for free-form date")
	}
}

func TestWriteValueYAML(t *testing.T) {
	var buf bytes.Buffer
	v := model.Counterparty{ID: "c1", Name: "Acme", ContactPerson: "Olga"}
	if err := writeValue(&buf, "yaml", v); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "contactPerson:") || strings.Contains(out, "{") {
		t.Errorf("yaml = %q", out)
	}
	if strings.Index(out, "id:") > strings.Index(out, "name:") {
		t.Errorf("yaml keys reordered: %q", out)
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("colorize with noColor = %q", got)
	}
	noColor = false
	if got := colorize(colorRed, "x"); got != colorRed+"x"+colorReset {
		t.Errorf("colorize = %q", got)
	}
}
