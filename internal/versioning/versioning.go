// Package versioning maintains the append-only version history of a document.
package versioning

import (
	"errors"
	"fmt"
	"time"

	"github.com/docvault/docvault/internal/model"
)

// SnapshotLength is the number of characters kept in a version's preview.
const SnapshotLength = 500

// ErrVersionNotFound is returned when a version id does not resolve within a document.
var ErrVersionNotFound = errors.New("version not found")

// Snapshot returns the first SnapshotLength characters of content.
func Snapshot(content string) string {
	n := 0
	for i := range content {
		if n == SnapshotLength {
			return content[:i]
		}
		n++
	}
	return content
}

// Append adds a new version holding content to doc and makes it the
// document's current content. The version number is len(doc.Versions)+1.
func Append(doc *model.Document, id, content, note, author string, now time.Time) model.DocumentVersion {
	v := model.DocumentVersion{
		ID:            id,
		VersionNumber: len(doc.Versions) + 1,
		CreatedAt:     now,
		Content:       content,
		Snapshot:      Snapshot(content),
		Note:          note,
		Author:        author,
	}
	doc.Versions = append(doc.Versions, v)
	doc.CurrentContent = content
	doc.UpdatedAt = now
	return v
}

// Revert appends a copy of the target version's content as a new version.
// Existing versions are never modified or removed.
func Revert(doc *model.Document, targetID, id string, now time.Time) (model.DocumentVersion, error) {
	target, ok := Find(doc.Versions, targetID)
	if !ok {
		return model.DocumentVersion{}, ErrVersionNotFound
	}
	note := fmt.Sprintf("Reverted to version %d", target.VersionNumber)
	return Append(doc, id, target.Content, note, "", now), nil
}

// Find returns the version with the given id.
func Find(versions []model.DocumentVersion, id string) (model.DocumentVersion, bool) {
	for _, v := range versions {
		if v.ID == id {
			return v, true
		}
	}
	return model.DocumentVersion{}, false
}

// Validate checks that version numbers run 1..n without gaps and that ids are unique.
func Validate(versions []model.DocumentVersion) error {
	seen := make(map[string]struct{}, len(versions))
	for i, v := range versions {
		if v.VersionNumber != i+1 {
			return fmt.Errorf("version at position %d has number %d, want %d", i, v.VersionNumber, i+1)
		}
		if v.ID == "" {
			return fmt.Errorf("version %d has no id", v.VersionNumber)
		}
		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("duplicate version id %q", v.ID)
		}
		seen[v.ID] = struct{}{}
	}
	return nil
}
