package flow

import (
	"olympiad-bot/internal/models"
)

type ConfirmStep string

const AwaitConfirm ConfirmStep = "await_confirm"

var confirmSteps = []ConfirmStep{AwaitConfirm}

// Application waits for the applicant to confirm the chosen olympiad.
type Application struct {
	Step       ConfirmStep `json:"-"`
	OlympiadID uint        `json:"olympiad_id"`
}

func StartApplication(olympiadID uint) Application {
	return Application{Step: AwaitConfirm, OlympiadID: olympiadID}
}

func (Application) Kind() Kind         { return KindApplication }
func (a Application) StepName() string { return string(a.Step) }

func (a *Application) setStep(step string) bool {
	var ok bool
	a.Step, ok = hasStep(confirmSteps, step)
	return ok
}

type CommentStep string

const AwaitComment CommentStep = "await_comment"

// Moderation holds a decision until the moderator adds a comment or skips.
type Moderation struct {
	Step          CommentStep       `json:"-"`
	ApplicationID uint              `json:"application_id"`
	Status        models.StatusName `json:"status"`
}

func StartModeration(appID uint, status models.StatusName) Moderation {
	return Moderation{Step: AwaitComment, ApplicationID: appID, Status: status}
}

func (Moderation) Kind() Kind         { return KindModeration }
func (m Moderation) StepName() string { return string(m.Step) }

func (m *Moderation) setStep(step string) bool {
	var ok bool
	m.Step, ok = hasStep([]CommentStep{AwaitComment}, step)
	return ok
}

func (m Moderation) Comment(s string) (string, error) {
	return text(s, maxText)
}

type TextStep string

const AwaitText TextStep = "await_text"

// CommentEdit replaces the acting moderator's comment on an application.
type CommentEdit struct {
	Step          TextStep `json:"-"`
	ApplicationID uint     `json:"application_id"`
}

func StartCommentEdit(appID uint) CommentEdit {
	return CommentEdit{Step: AwaitText, ApplicationID: appID}
}

func (CommentEdit) Kind() Kind         { return KindCommentEdit }
func (c CommentEdit) StepName() string { return string(c.Step) }

func (c *CommentEdit) setStep(step string) bool {
	var ok bool
	c.Step, ok = hasStep([]TextStep{AwaitText}, step)
	return ok
}

func (c CommentEdit) Comment(s string) (string, error) {
	return text(s, maxText)
}
