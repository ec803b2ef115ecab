// Package facade is the request/response surface over the document store.
// Every operation returns an Envelope and never panics.
package facade

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/internal/model"
	"github.com/docvault/docvault/internal/ocr"
	"github.com/docvault/docvault/internal/placeholder"
	"github.com/docvault/docvault/internal/storage"
)

// Store defines the storage operations the Facade needs.
// Implemented by storage.Store.
type Store interface {
	Get(ctx context.Context, c storage.Collection, id string, out any) error
	GetAll(ctx context.Context, c storage.Collection) ([]json.RawMessage, error)
	Put(ctx context.Context, c storage.Collection, id string, v any) error
	Delete(ctx context.Context, c storage.Collection, id string) error
	ExportAll(ctx context.Context) (storage.Snapshot, error)
	ImportAll(ctx context.Context, snap storage.Snapshot) error
}

// JobQueue accepts background work. Implemented by storage.Store.
type JobQueue interface {
	EnqueueJob(ctx context.Context, job storage.Job) error
}

// Recognizer extracts text from a stored file.
type Recognizer interface {
	Recognize(ctx context.Context, f model.FileUpload) (string, error)
}

// Sanitizer cleans HTML content before it is stored.
type Sanitizer interface {
	Sanitize(html string) string
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Options holds the optional collaborators of a Facade. Zero values select defaults.
type Options struct {
	// Jobs receives text recognition jobs for uploads. Nil disables background recognition.
	Jobs JobQueue
	// Recognizer defaults to ocr.NewRecognizer.
	Recognizer Recognizer
	// Sanitizer, when set, cleans content before it is stored.
	Sanitizer Sanitizer
	Clock     Clock
	Logger    *slog.Logger
	// NewID defaults to UUIDv7 strings.
	NewID func() string
}

// Facade implements the document, template, settings and file operations.
type Facade struct {
	store      Store
	jobs       JobQueue
	recognizer Recognizer
	sanitizer  Sanitizer
	clock      Clock
	logger     *slog.Logger
	newID      func() string
}

// New creates a Facade over store.
func New(store Store, opts Options) *Facade {
	f := &Facade{
		store:      store,
		jobs:       opts.Jobs,
		recognizer: opts.Recognizer,
		sanitizer:  opts.Sanitizer,
		clock:      opts.Clock,
		logger:     opts.Logger,
		newID:      opts.NewID,
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.clock == nil {
		f.clock = realClock{}
	}
	if f.newID == nil {
		f.newID = newUUID
	}
	if f.recognizer == nil {
		f.recognizer = ocr.NewRecognizer(f.logger)
	}
	return f
}

// newUUID returns a UUIDv7: a millisecond timestamp prefix followed by random bits.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (f *Facade) now() time.Time {
	return f.clock.Now().UTC()
}

// touch returns the new updatedAt for a record last updated at prev. It never
// goes backwards, even if the wall clock does.
func (f *Facade) touch(prev time.Time) time.Time {
	now := f.now()
	if now.Before(prev) {
		return prev
	}
	return now
}

// clean returns content unchanged unless a sanitizer is configured. Sanitized
// content must keep the same placeholders, otherwise it is rejected.
func (f *Facade) clean(what, html string) (string, error) {
	if f.sanitizer == nil {
		return html, nil
	}
	cleaned := f.sanitizer.Sanitize(html)
	if !slices.Equal(placeholder.ExtractFields(html), placeholder.ExtractFields(cleaned)) {
		return "", invalid(what, errors.New("content: sanitizing would alter {{field}} placeholders"))
	}
	return cleaned, nil
}
