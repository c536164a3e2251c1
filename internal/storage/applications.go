package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"olympiad-bot/internal/models"
)

func statusID(tx *gorm.DB, name models.StatusName) (uint, error) {
	st, err := first[models.ApplicationStatus](tx.Where("name = ?", name), "status")
	if err != nil {
		return 0, err
	}
	return st.ID, nil
}

func (s *Store) HasApplication(ctx context.Context, userID, olympiadID uint) (bool, error) {
	var cnt int64
	err := s.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("user_id = ? AND olympiad_id = ?", userID, olympiadID).
		Count(&cnt).Error
	if err != nil {
		return false, fmt.Errorf("search for application: %w", err)
	}
	return cnt != 0, nil
}

// CreateApplication files a pending application. The existence check and the
// insert share one transaction, and the unique index catches concurrent
// inserts that slip past the check; both end in ErrDuplicate.
func (s *Store) CreateApplication(ctx context.Context, userID, olympiadID uint, at time.Time) (*models.Application, error) {
	app := models.Application{UserID: userID, OlympiadID: olympiadID, CreatedAt: at}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Olympiad](tx.Where("id = ?", olympiadID), "olympiad"); err != nil {
			return err
		}
		var cnt int64
		err := tx.Model(&models.Application{}).
			Where("user_id = ? AND olympiad_id = ?", userID, olympiadID).
			Count(&cnt).Error
		if err != nil {
			return fmt.Errorf("search for application: %w", err)
		}
		if cnt != 0 {
			return fmt.Errorf("application of user %d to olympiad %d: %w", userID, olympiadID, ErrDuplicate)
		}
		app.StatusID, err = statusID(tx, models.StatusPending)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&app).Error; err != nil {
			return fmt.Errorf("create application: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetApplication loads an application with applicant, olympiad, status and
// the comments in send order.
func (s *Store) GetApplication(ctx context.Context, id uint) (*models.Application, error) {
	tx := s.db.WithContext(ctx).
		Preload("User").
		Preload("Olympiad.Subject").
		Preload("Status").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("sent_date, id") }).
		Preload("Messages.User").
		Where("id = ?", id)
	return first[models.Application](tx, "application")
}

func (s *Store) ListUserApplications(ctx context.Context, userID uint) ([]models.Application, error) {
	var res []models.Application
	err := s.db.WithContext(ctx).
		Preload("Olympiad").
		Preload("Status").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list user applications: %w", err)
	}
	return res, nil
}

func (s *Store) ListPendingApplications(ctx context.Context) ([]models.Application, error) {
	var res []models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := statusID(tx, models.StatusPending)
		if err != nil {
			return err
		}
		err = tx.Preload("User").
			Preload("Olympiad").
			Preload("Status").
			Where("status_id = ?", pending).
			Order("created_at, id").
			Find(&res).Error
		if err != nil {
			return fmt.Errorf("list pending applications: %w", err)
		}
		return nil
	})
	return res, err
}

func (s *Store) ListOlympiadApplications(ctx context.Context, olympiadID uint) ([]models.Application, error) {
	var res []models.Application
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Status").
		Where("olympiad_id = ?", olympiadID).
		Order("id").
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list olympiad applications: %w", err)
	}
	return res, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id uint, status models.StatusName) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sid, err := statusID(tx, status)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Application{}).Where("id = ?", id).Update("status_id", sid)
		if res.Error != nil {
			return fmt.Errorf("update application status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("application %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// ReviewApplication sets the status and stores the reviewer's comment in one
// transaction.
func (s *Store) ReviewApplication(ctx context.Context, id uint, status models.StatusName, authorID uint, comment string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sid, err := statusID(tx, status)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Application{}).Where("id = ?", id).Update("status_id", sid)
		if res.Error != nil {
			return fmt.Errorf("update application status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("application %d: %w", id, ErrNotFound)
		}
		msg := models.Message{ApplicationID: id, UserID: authorID, Text: comment, SentAt: at}
		if err := tx.Omit(clause.Associations).Create(&msg).Error; err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		return nil
	})
}

// DeleteApplication removes the application and its messages.
func (s *Store) DeleteApplication(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Application](tx.Where("id = ?", id), "application"); err != nil {
			return err
		}
		if err := tx.Where("application_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Delete(&models.Application{}, id).Error; err != nil {
			return fmt.Errorf("delete application: %w", err)
		}
		return nil
	})
}

func (s *Store) CreateMessage(ctx context.Context, applicationID, authorID uint, text string, at time.Time) error {
	msg := models.Message{ApplicationID: applicationID, UserID: authorID, Text: text, SentAt: at}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&msg).Error; err != nil {
		return fmt.Errorf("create message: %w", translate(err))
	}
	return nil
}

// ReplaceMessage drops the author's earlier comments on the application and
// writes a new one. Comments by other authors stay.
func (s *Store) ReplaceMessage(ctx context.Context, applicationID, authorID uint, text string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Application](tx.Where("id = ?", applicationID), "application"); err != nil {
			return err
		}
		err := tx.Where("application_id = ? AND user_id = ?", applicationID, authorID).Delete(&models.Message{}).Error
		if err != nil {
			return fmt.Errorf("delete old message: %w", err)
		}
		msg := models.Message{ApplicationID: applicationID, UserID: authorID, Text: text, SentAt: at}
		if err := tx.Omit(clause.Associations).Create(&msg).Error; err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		return nil
	})
}
