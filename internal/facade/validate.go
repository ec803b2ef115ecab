package facade

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/docvault/docvault/internal/model"
)

func validType(value interface{}) error {
	if t, ok := value.(model.Type); ok && !t.Valid() {
		return errors.New("must be one of contract, case, agreement, claim, resolution, other")
	}
	return nil
}

func validStatus(value interface{}) error {
	if s, ok := value.(model.Status); ok && !s.Valid() {
		return errors.New("must be one of draft, active, archived, completed")
	}
	return nil
}

func validUser(value interface{}) error {
	u, ok := value.(model.User)
	if !ok {
		return errors.New("invalid user")
	}
	return validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.Required),
		validation.Field(&u.Role, validation.Required, validation.By(func(v interface{}) error {
			if r, ok := v.(model.Role); ok && !r.Valid() {
				return errors.New("must be one of admin, lawyer, paralegal")
			}
			return nil
		})),
	)
}

func validCounterparty(value interface{}) error {
	c, ok := value.(model.Counterparty)
	if !ok {
		return errors.New("invalid counterparty")
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
	)
}

// newDocumentRequest is the validated input of CreateDocument and GenerateFromTemplate.
type newDocumentRequest struct {
	Title string     `json:"title"`
	Type  model.Type `json:"type"`
}

func (r newDocumentRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Type, validation.Required, validation.By(validType)),
	)
}

func validateDocumentPatch(p model.DocumentPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return validation.Errors{"title": errors.New("cannot be blank")}
	}
	errs := validation.Errors{}
	if p.Type != nil {
		errs["type"] = validType(*p.Type)
	}
	if p.Status != nil {
		errs["status"] = validStatus(*p.Status)
	}
	return errs.Filter()
}

type newTemplateRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (r newTemplateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

func validateTemplatePatch(p model.TemplatePatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return validation.Errors{"name": errors.New("cannot be blank")}
	}
	return nil
}

type newCommentRequest struct {
	Text string `json:"text"`
}

func (r newCommentRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required),
	)
}

func validateSettingsPatch(p model.SettingsPatch) error {
	return validation.Errors{
		"users":          validation.Validate(p.Users, validation.Each(validation.By(validUser))),
		"counterparties": validation.Validate(p.Counterparties, validation.Each(validation.By(validCounterparty))),
	}.Filter()
}

type newFileRequest struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

func (r newFileRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Data, validation.Required),
	)
}
