package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

var ctx = context.Background()

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) < 2 {
		t.Fatalf("expected at least two applied migrations, got %v", versions)
	}

	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func TestCollectionTablesExist(t *testing.T) {
	s := openTestStore(t)

	for _, name := range []string{"documents", "templates", "settings", "files", "jobs"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", name, err)
		}
		if count != 1 {
			t.Errorf("table %q not found in sqlite_master", name)
		}
	}
}

// TestOpenUnavailable verifies Open fails fast with ErrUnavailable when the
// data directory cannot be created.
func TestOpenUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(filepath.Join(blocker, "data"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestPutAndGet(t *testing.T) {
	s := openTestStore(t)

	want := record{ID: "doc-1", Title: "Lease"}
	if err := s.Put(ctx, Documents, want.ID, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got record
	if err := s.Get(ctx, Documents, "doc-1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(ctx, Templates, "t1", record{ID: "t1", Title: "old"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, Templates, "t1", record{ID: "t1", Title: "new"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got record
	if err := s.Get(ctx, Templates, "t1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "new" {
		t.Errorf("Title = %q, want %q", got.Title, "new")
	}

	n, err := s.Count(ctx, Templates)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	var got record
	err := s.Get(ctx, Documents, "does-not-exist", &got)
	if err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := openTestStore(t)

	if err := s.Delete(ctx, Files, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(ctx, Files, "f1", record{ID: "f1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, Files, "f1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var got record
	if err := s.Get(ctx, Files, "f1", &got); err != ErrNotFound {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestGetAll(t *testing.T) {
	s := openTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, Documents, id, record{ID: id}); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	raws, err := s.GetAll(ctx, Documents)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	var ids []string
	for _, raw := range raws {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("ids = %v, want [a b c]", ids)
	}
}

func TestCollectionsAreIndependent(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(ctx, Documents, "same-id", record{ID: "same-id", Title: "doc"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, Templates, "same-id", record{ID: "same-id", Title: "tpl"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var doc, tpl record
	if err := s.Get(ctx, Documents, "same-id", &doc); err != nil {
		t.Fatalf("Get doc: %v", err)
	}
	if err := s.Get(ctx, Templates, "same-id", &tpl); err != nil {
		t.Fatalf("Get tpl: %v", err)
	}
	if doc.Title != "doc" || tpl.Title != "tpl" {
		t.Errorf("doc.Title = %q, tpl.Title = %q", doc.Title, tpl.Title)
	}
}

func TestUnknownCollection(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(ctx, Collection("users; DROP TABLE documents"), "x", record{}); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}

func TestSettingsSentinel(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutSettings(ctx, map[string]bool{"enableOCR": true}); err != nil {
		t.Fatalf("PutSettings: %v", err)
	}
	if err := s.PutSettings(ctx, map[string]bool{"enableOCR": false}); err != nil {
		t.Fatalf("PutSettings: %v", err)
	}

	var got map[string]bool
	if err := s.GetSettings(ctx, &got); err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got["enableOCR"] {
		t.Error("enableOCR = true, want false")
	}

	var id string
	if err := s.db.QueryRow("SELECT id FROM settings").Scan(&id); err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	if id != SettingsKey {
		t.Errorf("settings id = %q, want %q", id, SettingsKey)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(ctx, Documents, "d1", record{ID: "d1", Title: "one"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, Templates, "t1", record{ID: "t1", Title: "tpl"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutSettings(ctx, map[string]bool{"enableOCR": true}); err != nil {
		t.Fatal(err)
	}

	snap, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(snap.Documents) != 1 || len(snap.Templates) != 1 || snap.Settings == nil {
		t.Fatalf("snapshot = %+v, want 1 doc, 1 template, settings", snap)
	}

	// Mutate, then import the snapshot back.
	if err := s.Put(ctx, Documents, "d2", record{ID: "d2"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ImportAll(ctx, snap); err != nil {
		t.Fatalf("ImportAll: %v", err)
	}

	n, err := s.Count(ctx, Documents)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("documents after import = %d, want 1", n)
	}
	var got record
	if err := s.Get(ctx, Documents, "d1", &got); err != nil {
		t.Fatalf("Get d1: %v", err)
	}
	if got.Title != "one" {
		t.Errorf("Title = %q, want %q", got.Title, "one")
	}
}

func TestImportWithoutSettingsKeepsSettings(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutSettings(ctx, map[string]bool{"useTesseract": true}); err != nil {
		t.Fatal(err)
	}
	if err := s.ImportAll(ctx, Snapshot{}); err != nil {
		t.Fatalf("ImportAll: %v", err)
	}

	var got map[string]bool
	if err := s.GetSettings(ctx, &got); err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if !got["useTesseract"] {
		t.Error("settings were replaced by an import without settings")
	}
}

// TestImportRollsBackOnFailure verifies a failing import leaves the store untouched,
// even though the collections were already cleared inside the transaction.
func TestImportRollsBackOnFailure(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(ctx, Documents, "keep", record{ID: "keep", Title: "original"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, Templates, "tkeep", record{ID: "tkeep"}); err != nil {
		t.Fatal(err)
	}

	bad := Snapshot{
		Documents: []Record{
			{ID: "new-1", Data: json.RawMessage(`{"id":"new-1"}`)},
			{ID: "", Data: json.RawMessage(`{}`)},
		},
	}
	if err := s.ImportAll(ctx, bad); err == nil {
		t.Fatal("expected ImportAll to fail")
	}

	var got record
	if err := s.Get(ctx, Documents, "keep", &got); err != nil {
		t.Fatalf("Get keep after failed import: %v", err)
	}
	if got.Title != "original" {
		t.Errorf("Title = %q, want %q", got.Title, "original")
	}
	if err := s.Get(ctx, Documents, "new-1", &got); err != ErrNotFound {
		t.Errorf("Get new-1 = %v, want ErrNotFound", err)
	}
	if n, _ := s.Count(ctx, Templates); n != 1 {
		t.Errorf("templates after failed import = %d, want 1", n)
	}
}

func TestJobsTableDefaults(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(`INSERT INTO jobs (id, type, payload_json) VALUES ('j1', 'ocr_recognize', '{"file_id":"f1"}')`)
	if err != nil {
		t.Fatalf("INSERT into jobs: %v", err)
	}

	var status string
	var attempts, maxAttempts int
	err = s.db.QueryRow(`SELECT status, attempts, max_attempts FROM jobs WHERE id = 'j1'`).
		Scan(&status, &attempts, &maxAttempts)
	if err != nil {
		t.Fatalf("SELECT from jobs: %v", err)
	}
	if status != "pending" {
		t.Errorf("status = %q, want %q", status, "pending")
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0", attempts)
	}
	if maxAttempts != 3 {
		t.Errorf("max_attempts = %d, want 3", maxAttempts)
	}
}

func TestEnqueueAndClaimJob(t *testing.T) {
	s := openTestStore(t)

	job := Job{
		ID:          "j-claim-1",
		Type:        "ocr_recognize",
		PayloadJSON: `{"file_id":"f1"}`,
	}
	if err := s.EnqueueJob(ctx, job); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	got, err := s.ClaimNextJob(ctx, []string{"ocr_recognize"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if got == nil {
		t.Fatal("ClaimNextJob returned nil")
	}
	if got.ID != "j-claim-1" {
		t.Errorf("ID = %q, want %q", got.ID, "j-claim-1")
	}
	if got.PayloadJSON != `{"file_id":"f1"}` {
		t.Errorf("PayloadJSON = %q, want %q", got.PayloadJSON, `{"file_id":"f1"}`)
	}
	if got.Status != "running" {
		t.Errorf("Status = %q, want %q", got.Status, "running")
	}
	if got.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", got.MaxAttempts)
	}
}

func TestClaimNextJob_Empty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ClaimNextJob(ctx, []string{"ocr_recognize"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestClaimNextJob_RespectRunAfter(t *testing.T) {
	s := openTestStore(t)

	job := Job{
		ID:          "j-future",
		Type:        "x",
		PayloadJSON: `{}`,
		RunAfter:    time.Now().UTC().Add(1 * time.Hour),
	}
	if err := s.EnqueueJob(ctx, job); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	got, err := s.ClaimNextJob(ctx, []string{"x"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for future run_after, got %+v", got)
	}
}

func TestClaimNextJob_TypeFilter(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueJob(ctx, Job{ID: "j-a", Type: "a", PayloadJSON: `{}`}); err != nil {
		t.Fatalf("EnqueueJob a: %v", err)
	}
	if err := s.EnqueueJob(ctx, Job{ID: "j-b", Type: "b", PayloadJSON: `{}`}); err != nil {
		t.Fatalf("EnqueueJob b: %v", err)
	}

	got, err := s.ClaimNextJob(ctx, []string{"b"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if got == nil {
		t.Fatal("ClaimNextJob returned nil")
	}
	if got.Type != "b" {
		t.Errorf("Type = %q, want %q", got.Type, "b")
	}
}

func TestCompleteJob(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueJob(ctx, Job{ID: "j-complete", Type: "x", PayloadJSON: `{}`}); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}
	if _, err := s.ClaimNextJob(ctx, []string{"x"}); err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if err := s.CompleteJob(ctx, "j-complete"); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	status, err := s.JobStatus(ctx, "j-complete")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if status != "completed" {
		t.Errorf("status = %q, want %q", status, "completed")
	}
}

func TestCompleteJob_NotFound(t *testing.T) {
	s := openTestStore(t)

	if err := s.CompleteJob(ctx, "nope"); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFailJob_RetriesThenFails(t *testing.T) {
	s := openTestStore(t)

	if err := s.EnqueueJob(ctx, Job{ID: "j-fail", Type: "x", PayloadJSON: `{}`, MaxAttempts: 2}); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	if err := s.FailJob(ctx, "j-fail", "boom"); err != nil {
		t.Fatalf("FailJob 1: %v", err)
	}
	status, err := s.JobStatus(ctx, "j-fail")
	if err != nil {
		t.Fatal(err)
	}
	if status != "pending" {
		t.Errorf("status after first failure = %q, want pending", status)
	}

	if err := s.FailJob(ctx, "j-fail", "boom again"); err != nil {
		t.Fatalf("FailJob 2: %v", err)
	}
	status, err = s.JobStatus(ctx, "j-fail")
	if err != nil {
		t.Fatal(err)
	}
	if status != "failed" {
		t.Errorf("status after max attempts = %q, want failed", status)
	}

	var lastError string
	if err := s.db.QueryRow(`SELECT last_error FROM jobs WHERE id = 'j-fail'`).Scan(&lastError); err != nil {
		t.Fatal(err)
	}
	if lastError != "boom again" {
		t.Errorf("last_error = %q, want %q", lastError, "boom again")
	}
}
