package model

import "time"

// Type classifies a document.
type Type string

const (
	TypeContract   Type = "contract"
	TypeCase       Type = "case"
	TypeAgreement  Type = "agreement"
	TypeClaim      Type = "claim"
	TypeResolution Type = "resolution"
	TypeOther      Type = "other"
)

// Types lists every document type in display order.
var Types = []Type{TypeContract, TypeCase, TypeAgreement, TypeClaim, TypeResolution, TypeOther}

func (t Type) Valid() bool {
	switch t {
	case TypeContract, TypeCase, TypeAgreement, TypeClaim, TypeResolution, TypeOther:
		return true
	}
	return false
}

// Status is the lifecycle state of a document. Any status may follow any other.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusArchived  Status = "archived"
	StatusCompleted Status = "completed"
)

var Statuses = []Status{StatusDraft, StatusActive, StatusArchived, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived, StatusCompleted:
		return true
	}
	return false
}

// Role is a user's role within the installation.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLawyer    Role = "lawyer"
	RoleParalegal Role = "paralegal"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLawyer, RoleParalegal:
		return true
	}
	return false
}

// ExpertiseType is an open tag; settings may extend DefaultExpertiseTypes.
type ExpertiseType string

var DefaultExpertiseTypes = []ExpertiseType{"civil", "criminal", "labor", "administrative", "corporate", "ip"}

// DocumentVersion is one immutable entry in a document's history.
type DocumentVersion struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"versionNumber"`
	CreatedAt     time.Time `json:"createdAt"`
	Content       string    `json:"content"`
	Snapshot      string    `json:"snapshot,omitempty"`
	Note          string    `json:"note"`
	Author        string    `json:"author,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	VersionID string    `json:"versionId,omitempty"`
}

// Document is a managed document with its full version and comment history.
type Document struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Type           Type              `json:"type"`
	CaseNumber     string            `json:"case_number,omitempty"`
	ContractNumber string            `json:"contract_number,omitempty"`
	Counterparty   string            `json:"counterparty,omitempty"`
	Amount         *float64          `json:"amount,omitempty"`
	ExpertiseType  ExpertiseType     `json:"expertise_type,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Status         Status            `json:"status"`
	Responsible    string            `json:"responsible,omitempty"`
	Tags           []string          `json:"tags"`
	Versions       []DocumentVersion `json:"versions"`
	Comments       []Comment         `json:"comments"`
	OCRText        string            `json:"ocrText,omitempty"`
	CurrentContent string            `json:"currentContent,omitempty"`
}

// Normalize replaces nil slices with empty ones so records read from older
// exports encode the same way as freshly created ones.
func (d *Document) Normalize() {
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.Versions == nil {
		d.Versions = []DocumentVersion{}
	}
	if d.Comments == nil {
		d.Comments = []Comment{}
	}
}

// Template is HTML-like content with {{field}} placeholders. Fields is always
// derived from Content.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Fields      []string  `json:"fields"`
}

type Counterparty struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Position string `json:"position,omitempty"`
}

// Settings is the installation-wide singleton record.
type Settings struct {
	Counterparties []Counterparty  `json:"counterparties"`
	ExpertiseTypes []ExpertiseType `json:"expertiseTypes"`
	Users          []User          `json:"users"`
	EnableOCR      bool            `json:"enableOCR"`
	UseTesseract   bool            `json:"useTesseract"`
}

// DefaultSettings is the base that the first settings update is merged onto.
func DefaultSettings() Settings {
	return Settings{
		Counterparties: []Counterparty{},
		ExpertiseTypes: []ExpertiseType{},
		Users:          []User{},
		EnableOCR:      true,
		UseTesseract:   false,
	}
}

func (s *Settings) Normalize() {
	if s.Counterparties == nil {
		s.Counterparties = []Counterparty{}
	}
	if s.ExpertiseTypes == nil {
		s.ExpertiseTypes = []ExpertiseType{}
	}
	if s.Users == nil {
		s.Users = []User{}
	}
}

// FileUpload is a stored binary upload. DocumentID links it to the document
// whose ocrText is filled from it.
type FileUpload struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	Data       []byte    `json:"data"`
	DocumentID string    `json:"documentId,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ExportVersion is the schema tag written into exports.
const ExportVersion = "1.0"

// ExportData is the export file format.
type ExportData struct {
	Documents  []Document `json:"documents"`
	Templates  []Template `json:"templates"`
	Settings   *Settings  `json:"settings,omitempty"`
	ExportedAt time.Time  `json:"exportedAt"`
	Version    string     `json:"version"`
}
