package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when the storage engine cannot be opened or initialized.
	ErrUnavailable = errors.New("storage unavailable")
)

// Collection names one of the independent record collections.
type Collection string

const (
	Documents Collection = "documents"
	Templates Collection = "templates"
	Settings  Collection = "settings"
	Files     Collection = "files"
)

// SettingsKey addresses the singleton record in the settings collection.
const SettingsKey = "settings"

func (c Collection) validate() error {
	switch c {
	case Documents, Templates, Settings, Files:
		return nil
	}
	return fmt.Errorf("unknown collection %q", string(c))
}

// Record is one stored entry: its key and its JSON body.
type Record struct {
	ID   string
	Data json.RawMessage
}

// Snapshot is a point-in-time copy of the documents, templates and settings
// collections. A nil Settings means there is no settings record.
type Snapshot struct {
	Documents []Record
	Templates []Record
	Settings  json.RawMessage
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
