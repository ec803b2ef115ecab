package facade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/storage"
)

// ListDocuments returns documents matching filter, most recently updated first.
func (f *Facade) ListDocuments(ctx context.Context, filter model.DocumentFilter) Envelope[[]model.Document] {
	return run(f, "list_documents", "Failed to fetch documents", func() ([]model.Document, error) {
		docs, err := f.allDocuments(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]model.Document, 0, len(docs))
		for _, d := range docs {
			if filter.Match(d) {
				out = append(out, d)
			}
		}
		sortDocuments(out)
		return out, nil
	})
}

func (f *Facade) GetDocument(ctx context.Context, id string) Envelope[model.Document] {
	return run(f, "get_document", "Failed to fetch document", func() (model.Document, error) {
		return f.loadDocument(ctx, id)
	})
}

// CreateDocument stores a new draft document with no versions or comments.
func (f *Facade) CreateDocument(ctx context.Context, title string, typ model.Type, data model.DocumentData) Envelope[model.Document] {
	return run(f, "create_document", "Failed to create document", func() (model.Document, error) {
		if err := (newDocumentRequest{Title: title, Type: typ}).Validate(); err != nil {
			return model.Document{}, invalid("document", err)
		}

		now := f.now()
		doc := model.Document{
			ID:             f.newID(),
			Title:          title,
			Type:           typ,
			CaseNumber:     data.CaseNumber,
			ContractNumber: data.ContractNumber,
			Counterparty:   data.Counterparty,
			Amount:         data.Amount,
			ExpertiseType:  data.ExpertiseType,
			Responsible:    data.Responsible,
			Tags:           append([]string{}, data.Tags...),
			Status:         model.StatusDraft,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		doc.Normalize()

		if err := f.store.Put(ctx, storage.Documents, doc.ID, doc); err != nil {
			return model.Document{}, err
		}
		return doc, nil
	})
}

// UpdateDocument applies patch to the document. UpdatedAt is always refreshed.
func (f *Facade) UpdateDocument(ctx context.Context, id string, patch model.DocumentPatch) Envelope[model.Document] {
	return run(f, "update_document", "Failed to update document", func() (model.Document, error) {
		if err := validateDocumentPatch(patch); err != nil {
			return model.Document{}, invalid("document update", err)
		}
		doc, err := f.loadDocument(ctx, id)
		if err != nil {
			return model.Document{}, err
		}

		if patch.CurrentContent != nil {
			cleaned, err := f.clean("document update", *patch.CurrentContent)
			if err != nil {
				return model.Document{}, err
			}
			patch.CurrentContent = &cleaned
		}
		patch.Apply(&doc)
		doc.UpdatedAt = f.touch(doc.UpdatedAt)

		if err := f.store.Put(ctx, storage.Documents, doc.ID, doc); err != nil {
			return model.Document{}, err
		}
		return doc, nil
	})
}

// DeleteDocument removes the document. Deleting a missing document succeeds.
func (f *Facade) DeleteDocument(ctx context.Context, id string) Envelope[Empty] {
	return run(f, "delete_document", "Failed to delete document", func() (Empty, error) {
		return Empty{}, f.store.Delete(ctx, storage.Documents, id)
	})
}

func (f *Facade) loadDocument(ctx context.Context, id string) (model.Document, error) {
	var doc model.Document
	err := f.store.Get(ctx, storage.Documents, id, &doc)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Document{}, notFound("Document")
	}
	if err != nil {
		return model.Document{}, err
	}
	doc.Normalize()
	return doc, nil
}

func (f *Facade) allDocuments(ctx context.Context) ([]model.Document, error) {
	raws, err := f.store.GetAll(ctx, storage.Documents)
	if err != nil {
		return nil, err
	}
	docs := make([]model.Document, 0, len(raws))
	for _, raw := range raws {
		var d model.Document
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		d.Normalize()
		docs = append(docs, d)
	}
	return docs, nil
}

// sortDocuments orders by updatedAt descending, then id descending.
func sortDocuments(docs []model.Document) {
	slices.SortFunc(docs, func(a, b model.Document) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}
