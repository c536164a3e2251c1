package models

import (
	"fmt"
	"time"
)

type RoleName string

const (
	RoleStudent       RoleName = "Студент"
	RoleModerator     RoleName = "Модератор"
	RoleAdministrator RoleName = "Администратор"
)

var Roles = []RoleName{RoleStudent, RoleModerator, RoleAdministrator}

// RoleCodes maps button codes to roles.
var RoleCodes = map[string]RoleName{
	"student":       RoleStudent,
	"moderator":     RoleModerator,
	"administrator": RoleAdministrator,
}

func (r RoleName) Code() string {
	for code, name := range RoleCodes {
		if name == r {
			return code
		}
	}
	return ""
}

func (r RoleName) Privileged() bool {
	return r == RoleModerator || r == RoleAdministrator
}

type StatusName string

const (
	StatusPending  StatusName = "Рассмотрение"
	StatusApproved StatusName = "Одобрена"
	StatusRejected StatusName = "Отклонена"
)

var Statuses = []StatusName{StatusPending, StatusApproved, StatusRejected}

var StatusCodes = map[string]StatusName{
	"pending":  StatusPending,
	"approved": StatusApproved,
	"rejected": StatusRejected,
}

func (s StatusName) Code() string {
	for code, name := range StatusCodes {
		if name == s {
			return code
		}
	}
	return ""
}

var DefaultCategories = []string{"Школьник", "Студент", "Аспирант", "Преподаватель"}

var DefaultSubjects = []Subject{
	{Title: "Математика", Description: "Олимпиады по математике различного уровня", Code: "MATH"},
	{Title: "Физика", Description: "Олимпиады по физике и астрономии", Code: "PHYS"},
	{Title: "Химия", Description: "Химические олимпиады и конкурсы", Code: "CHEM"},
	{Title: "Информатика", Description: "Олимпиады по информатике и программированию", Code: "INFO"},
	{Title: "Программирование", Description: "Конкурсы по программированию и алгоритмам", Code: "PROG"},
}

// OlympiadField is the closed set of olympiad fields editable after creation.
type OlympiadField string

const (
	OlympiadTitle       OlympiadField = "title"
	OlympiadDescription OlympiadField = "description"
	OlympiadOrganizer   OlympiadField = "organizer"
	OlympiadStartDate   OlympiadField = "start_date"
	OlympiadEndDate     OlympiadField = "end_date"
)

var OlympiadFields = []OlympiadField{
	OlympiadTitle, OlympiadDescription, OlympiadOrganizer, OlympiadStartDate, OlympiadEndDate,
}

func ParseOlympiadField(s string) (OlympiadField, error) {
	for _, f := range OlympiadFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown olympiad field %q", s)
}

func (f OlympiadField) IsDate() bool {
	return f == OlympiadStartDate || f == OlympiadEndDate
}

// OlympiadValue carries the new value of one editable field; Date is used for
// date fields and Text for the rest.
type OlympiadValue struct {
	Field OlympiadField
	Text  string
	Date  time.Time
}

type ProfileField string

const (
	ProfileFirstName  ProfileField = "first_name"
	ProfileLastName   ProfileField = "last_name"
	ProfileMiddleName ProfileField = "middle_name"
	ProfileCategory   ProfileField = "category"
)

var ProfileFields = []ProfileField{ProfileFirstName, ProfileLastName, ProfileMiddleName, ProfileCategory}

func ParseProfileField(s string) (ProfileField, error) {
	for _, f := range ProfileFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown profile field %q", s)
}

// ProfileValue carries a new name part; a nil Text clears an optional field.
type ProfileValue struct {
	Field ProfileField
	Text  *string
}

// NewUser is everything the registration flow collects.
type NewUser struct {
	TelegramID int64
	FirstName  string
	LastName   string
	MiddleName *string
	Role       RoleName
	CategoryID uint
}
