package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"olympiad-bot/internal/models"
)

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

func (s *Store) userQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("RoleLink.Role").
		Preload("CategoryLink.Category")
}

// GetUser looks a user up by chat id, together with role and category.
func (s *Store) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	return first[models.User](s.userQuery(ctx).Where("telegram_id = ?", telegramID), "user")
}

func (s *Store) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	user := models.User{
		TelegramID: nu.TelegramID,
		FirstName:  nu.FirstName,
		LastName:   nu.LastName,
		MiddleName: nu.MiddleName,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&models.User{}).Where("telegram_id = ?", nu.TelegramID).Count(&cnt).Error; err != nil {
			return fmt.Errorf("search for user: %w", err)
		}
		if cnt != 0 {
			return fmt.Errorf("user %d: %w", nu.TelegramID, ErrDuplicate)
		}
		role, err := first[models.Role](tx.Where("name = ?", nu.Role), "role")
		if err != nil {
			return err
		}
		if _, err := first[models.Category](tx.Where("id = ?", nu.CategoryID), "category"); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", translate(err))
		}
		if err := tx.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error; err != nil {
			return fmt.Errorf("link role: %w", translate(err))
		}
		if err := tx.Create(&models.UserCategory{UserID: user.ID, CategoryID: nu.CategoryID}).Error; err != nil {
			return fmt.Errorf("link category: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, nu.TelegramID)
}

var profileUpdaters = map[models.ProfileField]func(tx *gorm.DB, v models.ProfileValue) *gorm.DB{
	models.ProfileFirstName: func(tx *gorm.DB, v models.ProfileValue) *gorm.DB {
		return tx.Update("first_name", *v.Text)
	},
	models.ProfileLastName: func(tx *gorm.DB, v models.ProfileValue) *gorm.DB {
		return tx.Update("last_name", *v.Text)
	},
	models.ProfileMiddleName: func(tx *gorm.DB, v models.ProfileValue) *gorm.DB {
		return tx.Update("middle_name", v.Text)
	},
}

// UpdateUserName changes one name part. Category changes go through
// UpdateUserCategory.
func (s *Store) UpdateUserName(ctx context.Context, telegramID int64, v models.ProfileValue) error {
	upd, ok := profileUpdaters[v.Field]
	if !ok {
		return fmt.Errorf("update user: field %q is not a name part", v.Field)
	}
	if v.Text == nil && v.Field != models.ProfileMiddleName {
		return fmt.Errorf("update user: %s cannot be empty", v.Field)
	}
	res := upd(s.db.WithContext(ctx).Model(&models.User{}).Where("telegram_id = ?", telegramID), v)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", telegramID, ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateUserCategory(ctx context.Context, telegramID int64, categoryID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := first[models.User](tx.Where("telegram_id = ?", telegramID), "user")
		if err != nil {
			return err
		}
		if _, err := first[models.Category](tx.Where("id = ?", categoryID), "category"); err != nil {
			return err
		}
		res := tx.Model(&models.UserCategory{}).Where("user_id = ?", user.ID).Update("category_id", categoryID)
		if res.Error != nil {
			return fmt.Errorf("update category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.UserCategory{UserID: user.ID, CategoryID: categoryID}).Error; err != nil {
				return fmt.Errorf("link category: %w", err)
			}
		}
		return nil
	})
}

// DeleteUser removes the user with every row that references it: comments
// written by or about the user, applications, role and category links.
func (s *Store) DeleteUser(ctx context.Context, telegramID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := first[models.User](tx.Where("telegram_id = ?", telegramID), "user")
		if err != nil {
			return err
		}
		apps := tx.Model(&models.Application{}).Select("id").Where("user_id = ?", user.ID)
		if err := tx.Where("user_id = ? OR application_id IN (?)", user.ID, apps).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Application{}).Error; err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("delete role link: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserCategory{}).Error; err != nil {
			return fmt.Errorf("delete category link: %w", err)
		}
		if err := tx.Delete(&models.User{}, user.ID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var res []models.Category
	if err := s.db.WithContext(ctx).Order("id").Find(&res).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return res, nil
}

func (s *Store) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return first[models.Category](s.db.WithContext(ctx).Where("id = ?", id), "category")
}

func (s *Store) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var res []models.Subject
	if err := s.db.WithContext(ctx).Order("id").Find(&res).Error; err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return res, nil
}

func (s *Store) GetSubject(ctx context.Context, id uint) (*models.Subject, error) {
	return first[models.Subject](s.db.WithContext(ctx).Where("id = ?", id), "subject")
}
