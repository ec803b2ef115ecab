package versioning

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/docvault/docvault/internal/model"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newDoc() *model.Document {
	d := &model.Document{ID: "doc", Title: "Test", Type: model.TypeContract, CreatedAt: t0, UpdatedAt: t0}
	d.Normalize()
	return d
}

func TestAppendNumbersContiguously(t *testing.T) {
	doc := newDoc()

	v1 := Append(doc, "v1", "v1 text", "first", "ann", t0.Add(time.Minute))
	v2 := Append(doc, "v2", "v2 text", "second", "", t0.Add(2*time.Minute))

	if v1.VersionNumber != 1 || v2.VersionNumber != 2 {
		t.Errorf("version numbers = %d, %d; want 1, 2", v1.VersionNumber, v2.VersionNumber)
	}
	if doc.CurrentContent != "v2 text" {
		t.Errorf("CurrentContent = %q, want %q", doc.CurrentContent, "v2 text")
	}
	if !doc.UpdatedAt.Equal(t0.Add(2 * time.Minute)) {
		t.Errorf("UpdatedAt = %v, want bumped", doc.UpdatedAt)
	}
	if v1.Author != "ann" {
		t.Errorf("Author = %q, want ann", v1.Author)
	}
	if err := Validate(doc.Versions); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRevertAppendsCopy(t *testing.T) {
	doc := newDoc()
	Append(doc, "v1", "v1 text", "first", "", t0)
	Append(doc, "v2", "v2 text", "second", "", t0)

	got, err := Revert(doc, "v1", "v3", t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}

	if len(doc.Versions) != 3 {
		t.Fatalf("len(Versions) = %d, want 3", len(doc.Versions))
	}
	if got.VersionNumber != 3 {
		t.Errorf("VersionNumber = %d, want 3", got.VersionNumber)
	}
	if doc.Versions[2].Content != "v1 text" {
		t.Errorf("Versions[2].Content = %q, want %q", doc.Versions[2].Content, "v1 text")
	}
	if doc.Versions[2].Note != "Reverted to version 1" {
		t.Errorf("Note = %q, want %q", doc.Versions[2].Note, "Reverted to version 1")
	}
	if doc.CurrentContent != "v1 text" {
		t.Errorf("CurrentContent = %q, want %q", doc.CurrentContent, "v1 text")
	}
	if doc.Versions[0].Content != "v1 text" || doc.Versions[1].Content != "v2 text" {
		t.Error("earlier versions were modified")
	}
	if doc.Versions[1].Note != "second" {
		t.Errorf("Versions[1].Note = %q, want unchanged", doc.Versions[1].Note)
	}
}

func TestRevertUnknownVersion(t *testing.T) {
	doc := newDoc()
	Append(doc, "v1", "x", "", "", t0)

	_, err := Revert(doc, "nope", "v2", t0)
	if !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("error = %v, want ErrVersionNotFound", err)
	}
	if len(doc.Versions) != 1 {
		t.Errorf("len(Versions) = %d, want 1", len(doc.Versions))
	}
}

func TestSnapshotTruncatesByCharacter(t *testing.T) {
	short := "hello"
	if got := Snapshot(short); got != short {
		t.Errorf("Snapshot(%q) = %q", short, got)
	}

	long := strings.Repeat("ж", 600)
	got := Snapshot(long)
	if n := utf8.RuneCountInString(got); n != SnapshotLength {
		t.Errorf("rune count = %d, want %d", n, SnapshotLength)
	}
	if !utf8.ValidString(got) {
		t.Error("snapshot is not valid UTF-8")
	}

	exact := strings.Repeat("a", SnapshotLength)
	if got := Snapshot(exact); got != exact {
		t.Error("content of exactly SnapshotLength characters was truncated")
	}
}

func TestValidateDetectsGaps(t *testing.T) {
	versions := []model.DocumentVersion{
		{ID: "a", VersionNumber: 1},
		{ID: "b", VersionNumber: 3},
	}
	if err := Validate(versions); err == nil {
		t.Error("expected error for gap in version numbers")
	}

	dup := []model.DocumentVersion{
		{ID: "a", VersionNumber: 1},
		{ID: "a", VersionNumber: 2},
	}
	if err := Validate(dup); err == nil {
		t.Error("expected error for duplicate version id")
	}

	if err := Validate(nil); err != nil {
		t.Errorf("Validate(nil) = %v, want nil", err)
	}
}
