package flow

import (
	"olympiad-bot/internal/models"
)

type ProfileEdit struct {
	Step  EditStep            `json:"-"`
	Field models.ProfileField `json:"field,omitempty"`
}

func StartProfileEdit() ProfileEdit {
	return ProfileEdit{Step: EditField}
}

func (ProfileEdit) Kind() Kind         { return KindProfileEdit }
func (p ProfileEdit) StepName() string { return string(p.Step) }

func (p *ProfileEdit) setStep(step string) bool {
	var ok bool
	p.Step, ok = hasStep(editSteps, step)
	return ok
}

func (p ProfileEdit) ChooseField(f models.ProfileField) (ProfileEdit, error) {
	if p.Step != EditField {
		return p, ErrUnexpected
	}
	p.Field, p.Step = f, EditNewValue
	return p, nil
}

// Value parses a typed name part. The category is picked with a button and
// never typed, so it is rejected here.
func (p ProfileEdit) Value(s string) (models.ProfileValue, error) {
	if p.Step != EditNewValue || p.Field == models.ProfileCategory {
		return models.ProfileValue{}, ErrUnexpected
	}
	v, err := text(s, maxName)
	if err != nil {
		return models.ProfileValue{}, err
	}
	if p.Field == models.ProfileMiddleName && v == NoMiddleName {
		return models.ProfileValue{Field: p.Field}, nil
	}
	return models.ProfileValue{Field: p.Field, Text: &v}, nil
}

type AccountDelete struct {
	Step ConfirmStep `json:"-"`
}

func StartAccountDelete() AccountDelete {
	return AccountDelete{Step: AwaitConfirm}
}

func (AccountDelete) Kind() Kind         { return KindAccountDelete }
func (a AccountDelete) StepName() string { return string(a.Step) }

func (a *AccountDelete) setStep(step string) bool {
	var ok bool
	a.Step, ok = hasStep(confirmSteps, step)
	return ok
}
