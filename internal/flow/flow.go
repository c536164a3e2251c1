// Package flow holds the conversation state machines. Every flow is a plain
// value type; transitions return a new value and never touch storage.
package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"olympiad-bot/internal/session"
)

type Kind string

const (
	KindRegistration   Kind = "registration"
	KindOlympiadCreate Kind = "olympiad_create"
	KindOlympiadEdit   Kind = "olympiad_edit"
	KindApplication    Kind = "application"
	KindModeration     Kind = "moderation"
	KindCommentEdit    Kind = "comment_edit"
	KindProfileEdit    Kind = "profile_edit"
	KindAccountDelete  Kind = "account_delete"
)

// State is one step of one flow.
type State interface {
	Kind() Kind
	StepName() string
}

var (
	ErrEmpty          = errors.New("empty value")
	ErrTooLong        = errors.New("value too long")
	ErrBadDate        = errors.New("bad date")
	ErrEndBeforeStart = errors.New("end date before start date")
	ErrUnexpected     = errors.New("input not expected at this step")
	ErrUnknownState   = errors.New("unknown state")
)

const (
	maxName  = 100
	maxTitle = 200
	maxOrg   = 150
	maxText  = 4000
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// text trims s and checks it against a validator tag list, mapping the
// failures to the package errors.
func text(s string, limit int) (string, error) {
	s = strings.TrimSpace(s)
	if err := validate.Var(s, fmt.Sprintf("required,max=%d", limit)); err != nil {
		return "", fieldError(err)
	}
	return s, nil
}

func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Tag() {
	case "required":
		return ErrEmpty
	case "max":
		return ErrTooLong
	case "gtefield":
		return ErrEndBeforeStart
	default:
		return fmt.Errorf("invalid %s: %w", verrs[0].Field(), err)
	}
}

func Encode(s State) (session.Record, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return session.Record{}, fmt.Errorf("encode %s state: %w", s.Kind(), err)
	}
	return session.Record{State: string(s.Kind()) + ":" + s.StepName(), Data: data}, nil
}

type stepper[T any] interface {
	*T
	State
	setStep(step string) bool
}

func decodeAs[T State, PT stepper[T]](data json.RawMessage, step string) (State, error) {
	var v T
	p := PT(&v)
	if len(data) != 0 {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("decode %s state: %w", p.Kind(), err)
		}
	}
	if !p.setStep(step) {
		return nil, fmt.Errorf("%w: %s:%s", ErrUnknownState, p.Kind(), step)
	}
	return v, nil
}

func Decode(rec session.Record) (State, error) {
	kind, step, ok := strings.Cut(rec.State, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, rec.State)
	}
	switch Kind(kind) {
	case KindRegistration:
		return decodeAs[Registration](rec.Data, step)
	case KindOlympiadCreate:
		return decodeAs[OlympiadCreate](rec.Data, step)
	case KindOlympiadEdit:
		return decodeAs[OlympiadEdit](rec.Data, step)
	case KindApplication:
		return decodeAs[Application](rec.Data, step)
	case KindModeration:
		return decodeAs[Moderation](rec.Data, step)
	case KindCommentEdit:
		return decodeAs[CommentEdit](rec.Data, step)
	case KindProfileEdit:
		return decodeAs[ProfileEdit](rec.Data, step)
	case KindAccountDelete:
		return decodeAs[AccountDelete](rec.Data, step)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, rec.State)
	}
}

func hasStep[S ~string](steps []S, step string) (S, bool) {
	for _, s := range steps {
		if string(s) == step {
			return s, true
		}
	}
	return "", false
}
