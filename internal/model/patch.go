package model

import (
	"strings"
	"time"
)

// DocumentData carries the optional descriptive fields accepted when a
// document is created.
type DocumentData struct {
	CaseNumber     string        `json:"case_number,omitempty"`
	ContractNumber string        `json:"contract_number,omitempty"`
	Counterparty   string        `json:"counterparty,omitempty"`
	Amount         *float64      `json:"amount,omitempty"`
	ExpertiseType  ExpertiseType `json:"expertise_type,omitempty"`
	Responsible    string        `json:"responsible,omitempty"`
	Tags           []string      `json:"tags,omitempty"`
}

// GenerateMeta describes the document produced from a template.
type GenerateMeta struct {
	Title          string `json:"title"`
	Type           Type   `json:"type"`
	CaseNumber     string `json:"case_number,omitempty"`
	ContractNumber string `json:"contract_number,omitempty"`
	Counterparty   string `json:"counterparty,omitempty"`
}

// DocumentPatch is a partial document update. Nil fields are left unchanged.
// There is no way to touch id, createdAt, versions or comments through a patch.
type DocumentPatch struct {
	Title          *string        `json:"title,omitempty"`
	Type           *Type          `json:"type,omitempty"`
	Status         *Status        `json:"status,omitempty"`
	CaseNumber     *string        `json:"case_number,omitempty"`
	ContractNumber *string        `json:"contract_number,omitempty"`
	Counterparty   *string        `json:"counterparty,omitempty"`
	Amount         *float64       `json:"amount,omitempty"`
	ExpertiseType  *ExpertiseType `json:"expertise_type,omitempty"`
	Responsible    *string        `json:"responsible,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	OCRText        *string        `json:"ocrText,omitempty"`
	CurrentContent *string        `json:"currentContent,omitempty"`
}

// Apply merges the patch onto d. UpdatedAt is the caller's responsibility.
func (p DocumentPatch) Apply(d *Document) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.CaseNumber != nil {
		d.CaseNumber = *p.CaseNumber
	}
	if p.ContractNumber != nil {
		d.ContractNumber = *p.ContractNumber
	}
	if p.Counterparty != nil {
		d.Counterparty = *p.Counterparty
	}
	if p.Amount != nil {
		v := *p.Amount
		d.Amount = &v
	}
	if p.ExpertiseType != nil {
		d.ExpertiseType = *p.ExpertiseType
	}
	if p.Responsible != nil {
		d.Responsible = *p.Responsible
	}
	if p.Tags != nil {
		d.Tags = append([]string{}, p.Tags...)
	}
	if p.OCRText != nil {
		d.OCRText = *p.OCRText
	}
	if p.CurrentContent != nil {
		d.CurrentContent = *p.CurrentContent
	}
}

// TemplatePatch is a partial template update. Fields is never patched
// directly; it is recomputed from the resulting content.
type TemplatePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty"`
}

func (p TemplatePatch) Apply(t *Template) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Content != nil {
		t.Content = *p.Content
	}
}

// SettingsPatch is a partial settings update. Nil slices and pointers are left unchanged.
type SettingsPatch struct {
	Counterparties []Counterparty  `json:"counterparties,omitempty"`
	ExpertiseTypes []ExpertiseType `json:"expertiseTypes,omitempty"`
	Users          []User          `json:"users,omitempty"`
	EnableOCR      *bool           `json:"enableOCR,omitempty"`
	UseTesseract   *bool           `json:"useTesseract,omitempty"`
}

func (p SettingsPatch) Apply(s *Settings) {
	if p.Counterparties != nil {
		s.Counterparties = append([]Counterparty{}, p.Counterparties...)
	}
	if p.ExpertiseTypes != nil {
		s.ExpertiseTypes = append([]ExpertiseType{}, p.ExpertiseTypes...)
	}
	if p.Users != nil {
		s.Users = append([]User{}, p.Users...)
	}
	if p.EnableOCR != nil {
		s.EnableOCR = *p.EnableOCR
	}
	if p.UseTesseract != nil {
		s.UseTesseract = *p.UseTesseract
	}
}

// DocumentFilter selects documents for listing. Zero-valued fields do not
// filter; set fields combine with AND. From and To bound createdAt inclusively.
type DocumentFilter struct {
	Status Status    `json:"status,omitempty"`
	Type   Type      `json:"type,omitempty"`
	Search string    `json:"search,omitempty"`
	From   time.Time `json:"from,omitzero"`
	To     time.Time `json:"to,omitzero"`
}

// Match reports whether d satisfies every set condition of f.
func (f DocumentFilter) Match(d Document) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.Search != "" && !matchesSearch(d, strings.ToLower(f.Search)) {
		return false
	}
	if !f.From.IsZero() && d.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && d.CreatedAt.After(f.To) {
		return false
	}
	return true
}

func matchesSearch(d Document, needle string) bool {
	for _, s := range []string{d.Title, d.CaseNumber, d.ContractNumber, d.Counterparty, d.OCRText} {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
