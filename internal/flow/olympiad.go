package flow

import (
	"time"

	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
)

type CreateStep string

const (
	CreateTitle       CreateStep = "await_title"
	CreateDescription CreateStep = "await_description"
	CreateOrganizer   CreateStep = "await_organizer"
	CreateStartDate   CreateStep = "await_start_date"
	CreateEndDate     CreateStep = "await_end_date"
	CreateSubject     CreateStep = "await_subject"
	CreateConfirm     CreateStep = "await_confirm"
)

var createSteps = []CreateStep{
	CreateTitle, CreateDescription, CreateOrganizer, CreateStartDate, CreateEndDate, CreateSubject, CreateConfirm,
}

type OlympiadCreate struct {
	Step CreateStep `json:"-"`

	Title        string    `json:"title,omitempty" validate:"required,max=200"`
	Description  string    `json:"description,omitempty" validate:"required"`
	Organizer    string    `json:"organizer,omitempty" validate:"required,max=150"`
	StartDate    time.Time `json:"start_date,omitzero" validate:"required"`
	EndDate      time.Time `json:"end_date,omitzero" validate:"required,gtefield=StartDate"`
	SubjectID    uint      `json:"subject_id,omitempty" validate:"required"`
	SubjectTitle string    `json:"subject_title,omitempty"`
}

func StartOlympiadCreate() OlympiadCreate {
	return OlympiadCreate{Step: CreateTitle}
}

func (OlympiadCreate) Kind() Kind         { return KindOlympiadCreate }
func (c OlympiadCreate) StepName() string { return string(c.Step) }

func (c *OlympiadCreate) setStep(step string) bool {
	var ok bool
	c.Step, ok = hasStep(createSteps, step)
	return ok
}

func (c OlympiadCreate) Text(s string) (OlympiadCreate, error) {
	switch c.Step {
	case CreateTitle:
		v, err := text(s, maxTitle)
		if err != nil {
			return c, err
		}
		c.Title, c.Step = v, CreateDescription
	case CreateDescription:
		v, err := text(s, maxText)
		if err != nil {
			return c, err
		}
		c.Description, c.Step = v, CreateOrganizer
	case CreateOrganizer:
		v, err := text(s, maxOrg)
		if err != nil {
			return c, err
		}
		c.Organizer, c.Step = v, CreateStartDate
	case CreateStartDate:
		d, err := util.ParseDate(s)
		if err != nil {
			return c, ErrBadDate
		}
		c.StartDate, c.Step = d, CreateEndDate
	case CreateEndDate:
		d, err := util.ParseDate(s)
		if err != nil {
			return c, ErrBadDate
		}
		if d.Before(c.StartDate) {
			return c, ErrEndBeforeStart
		}
		c.EndDate, c.Step = d, CreateSubject
	default:
		return c, ErrUnexpected
	}
	return c, nil
}

func (c OlympiadCreate) ChooseSubject(sub models.Subject) (OlympiadCreate, error) {
	if c.Step != CreateSubject {
		return c, ErrUnexpected
	}
	c.SubjectID, c.SubjectTitle, c.Step = sub.ID, sub.Title, CreateConfirm
	return c, nil
}

func (c OlympiadCreate) Olympiad() (models.Olympiad, error) {
	if c.Step != CreateConfirm {
		return models.Olympiad{}, ErrUnexpected
	}
	if err := validate.Struct(c); err != nil {
		return models.Olympiad{}, fieldError(err)
	}
	return models.Olympiad{
		Title:       c.Title,
		Description: c.Description,
		Organizer:   c.Organizer,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		SubjectID:   c.SubjectID,
	}, nil
}

type EditStep string

const (
	EditField    EditStep = "await_field"
	EditNewValue EditStep = "await_new_value"
)

var editSteps = []EditStep{EditField, EditNewValue}

// OlympiadEdit changes one field of an existing olympiad. There is no
// confirmation step; the value is written as soon as it parses.
type OlympiadEdit struct {
	Step       EditStep             `json:"-"`
	OlympiadID uint                 `json:"olympiad_id"`
	Field      models.OlympiadField `json:"field,omitempty"`
}

func StartOlympiadEdit(id uint) OlympiadEdit {
	return OlympiadEdit{Step: EditField, OlympiadID: id}
}

func (OlympiadEdit) Kind() Kind         { return KindOlympiadEdit }
func (e OlympiadEdit) StepName() string { return string(e.Step) }

func (e *OlympiadEdit) setStep(step string) bool {
	var ok bool
	e.Step, ok = hasStep(editSteps, step)
	return ok
}

func (e OlympiadEdit) ChooseField(f models.OlympiadField) (OlympiadEdit, error) {
	if e.Step != EditField {
		return e, ErrUnexpected
	}
	e.Field, e.Step = f, EditNewValue
	return e, nil
}

// Value parses the new value for the chosen field. Dates are checked for
// format only, not against the other date of the olympiad.
func (e OlympiadEdit) Value(s string) (models.OlympiadValue, error) {
	if e.Step != EditNewValue {
		return models.OlympiadValue{}, ErrUnexpected
	}
	v := models.OlympiadValue{Field: e.Field}
	if e.Field.IsDate() {
		d, err := util.ParseDate(s)
		if err != nil {
			return v, ErrBadDate
		}
		v.Date = d
		return v, nil
	}
	limit := maxText
	switch e.Field {
	case models.OlympiadTitle:
		limit = maxTitle
	case models.OlympiadOrganizer:
		limit = maxOrg
	}
	t, err := text(s, limit)
	if err != nil {
		return v, err
	}
	v.Text = t
	return v, nil
}
