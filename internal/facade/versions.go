package facade

import (
	"context"
	"errors"

	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versioning"
)

// CreateVersion appends a version holding content to the document and makes
// it the current content.
func (f *Facade) CreateVersion(ctx context.Context, docID, content, note, author string) Envelope[model.DocumentVersion] {
	return run(f, "create_version", "Failed to create version", func() (model.DocumentVersion, error) {
		doc, err := f.loadDocument(ctx, docID)
		if err != nil {
			return model.DocumentVersion{}, err
		}

		content, err = f.clean("version", content)
		if err != nil {
			return model.DocumentVersion{}, err
		}
		now := f.touch(doc.UpdatedAt)
		v := versioning.Append(&doc, f.newID(), content, note, author, now)

		if err := f.store.Put(ctx, storage.Documents, doc.ID, doc); err != nil {
			return model.DocumentVersion{}, err
		}
		return v, nil
	})
}

// RevertVersion appends a new version copying the target version's content.
// History is never rewritten.
func (f *Facade) RevertVersion(ctx context.Context, docID, versionID string) Envelope[model.Document] {
	return run(f, "revert_version", "Failed to revert version", func() (model.Document, error) {
		doc, err := f.loadDocument(ctx, docID)
		if err != nil {
			return model.Document{}, err
		}

		_, err = versioning.Revert(&doc, versionID, f.newID(), f.touch(doc.UpdatedAt))
		if errors.Is(err, versioning.ErrVersionNotFound) {
			return model.Document{}, notFound("Version")
		}
		if err != nil {
			return model.Document{}, err
		}

		if err := f.store.Put(ctx, storage.Documents, doc.ID, doc); err != nil {
			return model.Document{}, err
		}
		return doc, nil
	})
}

// GetVersions returns the document's versions, oldest first.
func (f *Facade) GetVersions(ctx context.Context, docID string) Envelope[[]model.DocumentVersion] {
	return run(f, "get_versions", "Failed to fetch versions", func() ([]model.DocumentVersion, error) {
		doc, err := f.loadDocument(ctx, docID)
		if err != nil {
			return nil, err
		}
		return doc.Versions, nil
	})
}

// AddComment appends a comment to the document. A non-empty versionID must
// name one of the document's versions.
func (f *Facade) AddComment(ctx context.Context, docID, text, author, versionID string) Envelope[model.Comment] {
	return run(f, "add_comment", "Failed to add comment", func() (model.Comment, error) {
		if err := (newCommentRequest{Text: text}).Validate(); err != nil {
			return model.Comment{}, invalid("comment", err)
		}
		doc, err := f.loadDocument(ctx, docID)
		if err != nil {
			return model.Comment{}, err
		}
		if versionID != "" {
			if _, ok := versioning.Find(doc.Versions, versionID); !ok {
				return model.Comment{}, notFound("Version")
			}
		}

		now := f.touch(doc.UpdatedAt)
		c := model.Comment{
			ID:        f.newID(),
			Text:      text,
			Author:    author,
			CreatedAt: now,
			VersionID: versionID,
		}
		doc.Comments = append(doc.Comments, c)
		doc.UpdatedAt = now

		if err := f.store.Put(ctx, storage.Documents, doc.ID, doc); err != nil {
			return model.Comment{}, err
		}
		return c, nil
	})
}

// GetComments returns the document's comments in the order they were added.
func (f *Facade) GetComments(ctx context.Context, docID string) Envelope[[]model.Comment] {
	return run(f, "get_comments", "Failed to fetch comments", func() ([]model.Comment, error) {
		doc, err := f.loadDocument(ctx, docID)
		if err != nil {
			return nil, err
		}
		return doc.Comments, nil
	})
}
