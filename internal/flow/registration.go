package flow

import (
	"olympiad-bot/internal/models"
)

type RegStep string

const (
	RegFirstName  RegStep = "await_first_name"
	RegLastName   RegStep = "await_last_name"
	RegMiddleName RegStep = "await_middle_name"
	RegRole       RegStep = "await_role"
	RegCategory   RegStep = "await_category"
	RegConfirm    RegStep = "await_confirm"
)

var regSteps = []RegStep{RegFirstName, RegLastName, RegMiddleName, RegRole, RegCategory, RegConfirm}

// NoMiddleName is typed instead of a middle name when there is none.
const NoMiddleName = "-"

type Registration struct {
	Step RegStep `json:"-"`

	FirstName    string          `json:"first_name,omitempty" validate:"required,max=100"`
	LastName     string          `json:"last_name,omitempty" validate:"required,max=100"`
	MiddleName   *string         `json:"middle_name,omitempty" validate:"omitempty,max=100"`
	Role         models.RoleName `json:"role,omitempty" validate:"required"`
	CategoryID   uint            `json:"category_id,omitempty" validate:"required"`
	CategoryName string          `json:"category_name,omitempty"`
}

func StartRegistration() Registration {
	return Registration{Step: RegFirstName}
}

func (Registration) Kind() Kind         { return KindRegistration }
func (r Registration) StepName() string { return string(r.Step) }

func (r *Registration) setStep(step string) bool {
	var ok bool
	r.Step, ok = hasStep(regSteps, step)
	return ok
}

// Text consumes a typed answer at one of the name steps.
func (r Registration) Text(s string) (Registration, error) {
	switch r.Step {
	case RegFirstName:
		v, err := text(s, maxName)
		if err != nil {
			return r, err
		}
		r.FirstName, r.Step = v, RegLastName
	case RegLastName:
		v, err := text(s, maxName)
		if err != nil {
			return r, err
		}
		r.LastName, r.Step = v, RegMiddleName
	case RegMiddleName:
		v, err := text(s, maxName)
		if err != nil {
			return r, err
		}
		if v == NoMiddleName {
			r.MiddleName = nil
		} else {
			r.MiddleName = &v
		}
		r.Step = RegRole
	default:
		return r, ErrUnexpected
	}
	return r, nil
}

func (r Registration) ChooseRole(role models.RoleName) (Registration, error) {
	if r.Step != RegRole {
		return r, ErrUnexpected
	}
	r.Role, r.Step = role, RegCategory
	return r, nil
}

func (r Registration) ChooseCategory(c models.Category) (Registration, error) {
	if r.Step != RegCategory {
		return r, ErrUnexpected
	}
	r.CategoryID, r.CategoryName, r.Step = c.ID, c.Name, RegConfirm
	return r, nil
}

// NewUser returns the collected profile once the flow reached confirmation.
func (r Registration) NewUser(actor int64) (models.NewUser, error) {
	if r.Step != RegConfirm {
		return models.NewUser{}, ErrUnexpected
	}
	if err := validate.Struct(r); err != nil {
		return models.NewUser{}, fieldError(err)
	}
	return models.NewUser{
		TelegramID: actor,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		MiddleName: r.MiddleName,
		Role:       r.Role,
		CategoryID: r.CategoryID,
	}, nil
}
