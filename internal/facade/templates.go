package facade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/placeholder"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versioning"
)

const generatedNote = "Initial version from template"

// ListTemplates returns all templates, most recently updated first.
func (f *Facade) ListTemplates(ctx context.Context) Envelope[[]model.Template] {
	return run(f, "list_templates", "Failed to fetch templates", func() ([]model.Template, error) {
		raws, err := f.store.GetAll(ctx, storage.Templates)
		if err != nil {
			return nil, err
		}
		out := make([]model.Template, 0, len(raws))
		for _, raw := range raws {
			var t model.Template
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, fmt.Errorf("decoding template: %w", err)
			}
			t.Fields = placeholder.ExtractFields(t.Content)
			out = append(out, t)
		}
		slices.SortFunc(out, func(a, b model.Template) int {
			if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
				return c
			}
			return strings.Compare(b.ID, a.ID)
		})
		return out, nil
	})
}

func (f *Facade) GetTemplate(ctx context.Context, id string) Envelope[model.Template] {
	return run(f, "get_template", "Failed to fetch template", func() (model.Template, error) {
		return f.loadTemplate(ctx, id)
	})
}

// CreateTemplate stores a template with fields extracted from content.
func (f *Facade) CreateTemplate(ctx context.Context, name, description, content string) Envelope[model.Template] {
	return run(f, "create_template", "Failed to create template", func() (model.Template, error) {
		if err := (newTemplateRequest{Name: name, Content: content}).Validate(); err != nil {
			return model.Template{}, invalid("template", err)
		}

		content, err := f.clean("template", content)
		if err != nil {
			return model.Template{}, err
		}

		now := f.now()
		t := model.Template{
			ID:          f.newID(),
			Name:        name,
			Description: description,
			Content:     content,
			CreatedAt:   now,
			UpdatedAt:   now,
			Fields:      placeholder.ExtractFields(content),
		}
		if err := f.store.Put(ctx, storage.Templates, t.ID, t); err != nil {
			return model.Template{}, err
		}
		return t, nil
	})
}

// UpdateTemplate applies patch and recomputes fields from the resulting content.
func (f *Facade) UpdateTemplate(ctx context.Context, id string, patch model.TemplatePatch) Envelope[model.Template] {
	return run(f, "update_template", "Failed to update template", func() (model.Template, error) {
		if err := validateTemplatePatch(patch); err != nil {
			return model.Template{}, invalid("template update", err)
		}
		t, err := f.loadTemplate(ctx, id)
		if err != nil {
			return model.Template{}, err
		}

		if patch.Content != nil {
			cleaned, err := f.clean("template update", *patch.Content)
			if err != nil {
				return model.Template{}, err
			}
			patch.Content = &cleaned
		}
		patch.Apply(&t)
		t.Fields = placeholder.ExtractFields(t.Content)
		t.UpdatedAt = f.touch(t.UpdatedAt)

		if err := f.store.Put(ctx, storage.Templates, t.ID, t); err != nil {
			return model.Template{}, err
		}
		return t, nil
	})
}

// DeleteTemplate removes the template. Deleting a missing template succeeds.
func (f *Facade) DeleteTemplate(ctx context.Context, id string) Envelope[Empty] {
	return run(f, "delete_template", "Failed to delete template", func() (Empty, error) {
		return Empty{}, f.store.Delete(ctx, storage.Templates, id)
	})
}

// GenerateFromTemplate fills the template's fields with values and stores the
// result as a new active document with a single version. Fields without a
// value stay as placeholders in the generated content.
func (f *Facade) GenerateFromTemplate(ctx context.Context, templateID string, values map[string]string, meta model.GenerateMeta) Envelope[model.Document] {
	return run(f, "generate_from_template", "Failed to generate document", func() (model.Document, error) {
		if err := (newDocumentRequest{Title: meta.Title, Type: meta.Type}).Validate(); err != nil {
			return model.Document{}, invalid("document", err)
		}
		t, err := f.loadTemplate(ctx, templateID)
		if err != nil {
			return model.Document{}, err
		}

		now := f.now()
		doc := model.Document{
			ID:             f.newID(),
			Title:          meta.Title,
			Type:           meta.Type,
			CaseNumber:     meta.CaseNumber,
			ContractNumber: meta.ContractNumber,
			Counterparty:   meta.Counterparty,
			Status:         model.StatusActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		doc.Normalize()

		content := placeholder.SubstituteFields(t.Content, values)
		versioning.Append(&doc, f.newID(), content, generatedNote, "", now)

		if err := f.store.Put(ctx, storage.Documents, doc.ID, doc); err != nil {
			return model.Document{}, err
		}
		return doc, nil
	})
}

func (f *Facade) loadTemplate(ctx context.Context, id string) (model.Template, error) {
	var t model.Template
	err := f.store.Get(ctx, storage.Templates, id, &t)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Template{}, notFound("Template")
	}
	if err != nil {
		return model.Template{}, err
	}
	t.Fields = placeholder.ExtractFields(t.Content)
	return t, nil
}
