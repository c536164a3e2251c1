package models

import "time"

type Role struct {
	ID   uint     `gorm:"primaryKey"`
	Name RoleName `gorm:"size:50;not null;uniqueIndex"`
}

func (Role) TableName() string { return "role" }

type Category struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;not null;uniqueIndex"`
}

func (Category) TableName() string { return "category" }

type ApplicationStatus struct {
	ID   uint       `gorm:"primaryKey"`
	Name StatusName `gorm:"size:50;not null;uniqueIndex"`
}

func (ApplicationStatus) TableName() string { return "application_status" }

type User struct {
	ID         uint    `gorm:"primaryKey"`
	TelegramID int64   `gorm:"not null;uniqueIndex"`
	FirstName  string  `gorm:"size:100;not null"`
	LastName   string  `gorm:"size:100"`
	MiddleName *string `gorm:"size:100"`

	RoleLink     *UserRole     `gorm:"foreignKey:UserID"`
	CategoryLink *UserCategory `gorm:"foreignKey:UserID"`
}

func (User) TableName() string { return "users" }

func (u User) FullName() string {
	name := u.LastName + " " + u.FirstName
	if u.MiddleName != nil && *u.MiddleName != "" {
		name += " " + *u.MiddleName
	}
	return name
}

// RoleName returns an empty string when the role link was not loaded.
func (u User) RoleName() RoleName {
	if u.RoleLink == nil || u.RoleLink.Role == nil {
		return ""
	}
	return u.RoleLink.Role.Name
}

func (u User) CategoryName() string {
	if u.CategoryLink == nil || u.CategoryLink.Category == nil {
		return ""
	}
	return u.CategoryLink.Category.Name
}

type UserRole struct {
	ID     uint  `gorm:"primaryKey"`
	UserID uint  `gorm:"not null;uniqueIndex"`
	RoleID uint  `gorm:"not null"`
	Role   *Role `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT"`
}

func (UserRole) TableName() string { return "user_role" }

type UserCategory struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;uniqueIndex"`
	CategoryID uint      `gorm:"not null"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
}

func (UserCategory) TableName() string { return "user_category" }

type Subject struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:100;not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	Code        string `gorm:"size:20;uniqueIndex"`
}

func (Subject) TableName() string { return "subject" }

type Olympiad struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"type:text"`
	Organizer   string    `gorm:"size:150"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	SubjectID   uint      `gorm:"not null"`
	Subject     *Subject  `gorm:"foreignKey:SubjectID"`
}

func (Olympiad) TableName() string { return "olympiad" }

// ActiveOn reports whether day falls within [StartDate, EndDate].
func (o Olympiad) ActiveOn(day time.Time) bool {
	return !day.Before(o.StartDate) && !day.After(o.EndDate)
}

func (o Olympiad) SubjectTitle() string {
	if o.Subject == nil {
		return ""
	}
	return o.Subject.Title
}

type Application struct {
	ID         uint      `gorm:"primaryKey"`
	OlympiadID uint      `gorm:"not null;uniqueIndex:idx_application_user_olympiad,priority:2"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_application_user_olympiad,priority:1"`
	StatusID   uint      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`

	Olympiad *Olympiad          `gorm:"foreignKey:OlympiadID"`
	User     *User              `gorm:"foreignKey:UserID"`
	Status   *ApplicationStatus `gorm:"foreignKey:StatusID;constraint:OnDelete:RESTRICT"`
	Messages []Message          `gorm:"foreignKey:ApplicationID"`
}

func (Application) TableName() string { return "application" }

func (a Application) StatusName() StatusName {
	if a.Status == nil {
		return ""
	}
	return a.Status.Name
}

type Message struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        uint      `gorm:"not null;index"`
	ApplicationID uint      `gorm:"not null;index"`
	Text          string    `gorm:"column:message_text;type:text;not null"`
	SentAt        time.Time `gorm:"column:sent_date;not null"`

	User *User `gorm:"foreignKey:UserID"`
}

func (Message) TableName() string { return "messages" }

// All is the migration order; parents come before children.
var All = []any{
	&Role{},
	&Category{},
	&ApplicationStatus{},
	&User{},
	&UserRole{},
	&UserCategory{},
	&Subject{},
	&Olympiad{},
	&Application{},
	&Message{},
}
