package facade

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/placeholder"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/versioning"
)

// ExportDatabase returns a point-in-time copy of documents, templates and
// settings stamped with the export time and schema version.
func (f *Facade) ExportDatabase(ctx context.Context) Envelope[model.ExportData] {
	return run(f, "export_database", "Failed to export database", func() (model.ExportData, error) {
		snap, err := f.store.ExportAll(ctx)
		if err != nil {
			return model.ExportData{}, err
		}

		out := model.ExportData{
			Documents:  make([]model.Document, 0, len(snap.Documents)),
			Templates:  make([]model.Template, 0, len(snap.Templates)),
			ExportedAt: f.now(),
			Version:    model.ExportVersion,
		}
		for _, r := range snap.Documents {
			var d model.Document
			if err := json.Unmarshal(r.Data, &d); err != nil {
				return model.ExportData{}, fmt.Errorf("decoding document %s: %w", r.ID, err)
			}
			d.Normalize()
			out.Documents = append(out.Documents, d)
		}
		for _, r := range snap.Templates {
			var t model.Template
			if err := json.Unmarshal(r.Data, &t); err != nil {
				return model.ExportData{}, fmt.Errorf("decoding template %s: %w", r.ID, err)
			}
			t.Fields = placeholder.ExtractFields(t.Content)
			out.Templates = append(out.Templates, t)
		}
		if snap.Settings != nil {
			var s model.Settings
			if err := json.Unmarshal(snap.Settings, &s); err != nil {
				return model.ExportData{}, fmt.Errorf("decoding settings: %w", err)
			}
			s.Normalize()
			out.Settings = &s
		}
		sortDocuments(out.Documents)

		f.logger.Info("database exported", "documents", len(out.Documents), "templates", len(out.Templates))
		return out, nil
	})
}

// ImportDatabase replaces documents, templates and, when present, settings
// with the contents of an export file. The payload is fully validated before
// the store is touched, and the store applies it atomically.
func (f *Facade) ImportDatabase(ctx context.Context, blob []byte) Envelope[Empty] {
	return run(f, "import_database", "Failed to import database", func() (Empty, error) {
		snap, err := decodeImport(blob)
		if err != nil {
			return Empty{}, badImport(err)
		}
		if err := f.store.ImportAll(ctx, snap); err != nil {
			return Empty{}, err
		}
		f.logger.Info("database imported",
			"documents", len(snap.Documents),
			"templates", len(snap.Templates),
			"settings", snap.Settings != nil,
		)
		return Empty{}, nil
	})
}

type importFile struct {
	Documents []json.RawMessage `json:"documents"`
	Templates []json.RawMessage `json:"templates"`
	Settings  json.RawMessage   `json:"settings"`
	Version   string            `json:"version"`
}

func decodeImport(blob []byte) (storage.Snapshot, error) {
	var in importFile
	if err := json.Unmarshal(blob, &in); err != nil {
		return storage.Snapshot{}, err
	}
	if in.Version != "" && in.Version != model.ExportVersion {
		return storage.Snapshot{}, fmt.Errorf("unsupported version %q", in.Version)
	}
	if in.Documents == nil {
		return storage.Snapshot{}, errors.New("missing documents")
	}
	if in.Templates == nil {
		return storage.Snapshot{}, errors.New("missing templates")
	}

	snap := storage.Snapshot{
		Documents: make([]storage.Record, 0, len(in.Documents)),
		Templates: make([]storage.Record, 0, len(in.Templates)),
	}

	seen := make(map[string]struct{})
	for i, raw := range in.Documents {
		var d model.Document
		if err := json.Unmarshal(raw, &d); err != nil {
			return storage.Snapshot{}, fmt.Errorf("document %d: %w", i, err)
		}
		if err := checkImportedDocument(d, seen); err != nil {
			return storage.Snapshot{}, fmt.Errorf("document %d: %w", i, err)
		}
		d.Normalize()
		rec, err := record(d.ID, d)
		if err != nil {
			return storage.Snapshot{}, err
		}
		snap.Documents = append(snap.Documents, rec)
	}

	clear(seen)
	for i, raw := range in.Templates {
		var t model.Template
		if err := json.Unmarshal(raw, &t); err != nil {
			return storage.Snapshot{}, fmt.Errorf("template %d: %w", i, err)
		}
		if t.ID == "" {
			return storage.Snapshot{}, fmt.Errorf("template %d: missing id", i)
		}
		if _, dup := seen[t.ID]; dup {
			return storage.Snapshot{}, fmt.Errorf("template %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}
		t.Fields = placeholder.ExtractFields(t.Content)
		rec, err := record(t.ID, t)
		if err != nil {
			return storage.Snapshot{}, err
		}
		snap.Templates = append(snap.Templates, rec)
	}

	if len(in.Settings) > 0 && !bytes.Equal(bytes.TrimSpace(in.Settings), []byte("null")) {
		var s model.Settings
		if err := json.Unmarshal(in.Settings, &s); err != nil {
			return storage.Snapshot{}, fmt.Errorf("settings: %w", err)
		}
		s.Normalize()
		data, err := json.Marshal(s)
		if err != nil {
			return storage.Snapshot{}, err
		}
		snap.Settings = data
	}

	return snap, nil
}

func checkImportedDocument(d model.Document, seen map[string]struct{}) error {
	if d.ID == "" {
		return errors.New("missing id")
	}
	if _, dup := seen[d.ID]; dup {
		return fmt.Errorf("duplicate id %q", d.ID)
	}
	seen[d.ID] = struct{}{}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("document %q: missing title", d.ID)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("unknown type %q", d.Type)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("unknown status %q", d.Status)
	}
	return versioning.Validate(d.Versions)
}

func record(id string, v any) (storage.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return storage.Record{}, fmt.Errorf("encoding %s: %w", id, err)
	}
	return storage.Record{ID: id, Data: data}, nil
}
