package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"olympiad-bot/internal/models"
)

func (s *Store) seedReference(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range models.Roles {
			if err := tx.Where(models.Role{Name: r}).FirstOrCreate(&models.Role{}).Error; err != nil {
				return fmt.Errorf("seed role: %w", err)
			}
		}
		for _, c := range models.DefaultCategories {
			if err := tx.Where(models.Category{Name: c}).FirstOrCreate(&models.Category{}).Error; err != nil {
				return fmt.Errorf("seed category: %w", err)
			}
		}
		for _, st := range models.Statuses {
			if err := tx.Where(models.ApplicationStatus{Name: st}).FirstOrCreate(&models.ApplicationStatus{}).Error; err != nil {
				return fmt.Errorf("seed status: %w", err)
			}
		}
		for _, sub := range models.DefaultSubjects {
			if err := tx.Where(models.Subject{Title: sub.Title}).Attrs(sub).FirstOrCreate(&models.Subject{}).Error; err != nil {
				return fmt.Errorf("seed subject: %w", err)
			}
		}
		return nil
	})
}

type demoUser struct {
	user     models.NewUser
	category string
}

// SeedDemo fills an empty database with a few accounts and olympiads around
// today so the bot has something to show.
func (s *Store) SeedDemo(ctx context.Context, today time.Time) error {
	middle := func(v string) *string { return &v }
	users := []demoUser{
		{models.NewUser{TelegramID: 123456789, FirstName: "Админ", LastName: "Системный", MiddleName: middle("Главный"), Role: models.RoleAdministrator}, "Преподаватель"},
		{models.NewUser{TelegramID: 987654321, FirstName: "Модератор", LastName: "Тестовый", MiddleName: middle("Иванович"), Role: models.RoleModerator}, "Преподаватель"},
		{models.NewUser{TelegramID: 111111111, FirstName: "Иван", LastName: "Петров", MiddleName: middle("Сергеевич"), Role: models.RoleStudent}, "Студент"},
		{models.NewUser{TelegramID: 222222222, FirstName: "Елена", LastName: "Волкова", Role: models.RoleStudent}, "Школьник"},
	}
	for _, du := range users {
		cat, err := first[models.Category](s.db.WithContext(ctx).Where("name = ?", du.category), "category")
		if err != nil {
			return err
		}
		du.user.CategoryID = cat.ID
		if _, err := s.CreateUser(ctx, du.user); err != nil && !isDuplicate(err) {
			return fmt.Errorf("seed demo user: %w", err)
		}
	}

	subjects, err := s.ListSubjects(ctx)
	if err != nil {
		return err
	}
	bySubject := map[string]uint{}
	for _, sub := range subjects {
		bySubject[sub.Code] = sub.ID
	}
	day := func(offset int) time.Time { return today.AddDate(0, 0, offset) }
	olympiads := []models.Olympiad{
		{Title: "Летняя олимпиада по математике", Description: "Летний тур математической олимпиады для студентов.", Organizer: "Летняя школа МГУ", StartDate: day(-5), EndDate: day(20), SubjectID: bySubject["MATH"]},
		{Title: "Программистский марафон \"Лето Кода\"", Description: "Интенсивное соревнование по программированию.", Organizer: "Яндекс", StartDate: day(-1), EndDate: day(10), SubjectID: bySubject["PROG"]},
		{Title: "Физическая олимпиада МФТИ", Description: "Всероссийская олимпиада по физике.", Organizer: "МФТИ", StartDate: day(60), EndDate: day(120), SubjectID: bySubject["PHYS"]},
	}
	for i := range olympiads {
		err := s.db.WithContext(ctx).
			Where(models.Olympiad{Title: olympiads[i].Title}).
			Attrs(olympiads[i]).
			Omit(clause.Associations).
			FirstOrCreate(&olympiads[i]).Error
		if err != nil {
			return fmt.Errorf("seed demo olympiad: %w", err)
		}
	}
	return nil
}
