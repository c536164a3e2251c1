package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
)

func (s *Store) CreateOlympiad(ctx context.Context, o *models.Olympiad) error {
	if o.EndDate.Before(o.StartDate) {
		return fmt.Errorf("create olympiad: end date before start date")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Subject](tx.Where("id = ?", o.SubjectID), "subject"); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return fmt.Errorf("create olympiad: %w", translate(err))
		}
		return nil
	})
	return err
}

func (s *Store) GetOlympiad(ctx context.Context, id uint) (*models.Olympiad, error) {
	return first[models.Olympiad](s.db.WithContext(ctx).Preload("Subject").Where("id = ?", id), "olympiad")
}

// ListActiveOlympiads returns olympiads whose [start, end] range contains day.
func (s *Store) ListActiveOlympiads(ctx context.Context, day time.Time) ([]models.Olympiad, error) {
	day = util.Day(day)
	var res []models.Olympiad
	err := s.db.WithContext(ctx).
		Preload("Subject").
		Where("start_date <= ? AND end_date >= ?", day, day).
		Order("start_date, id").
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list active olympiads: %w", err)
	}
	return res, nil
}

// ListOlympiads returns one page of all olympiads, newest first, and the total
// count.
func (s *Store) ListOlympiads(ctx context.Context, offset, limit int) ([]models.Olympiad, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Olympiad{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count olympiads: %w", err)
	}
	var res []models.Olympiad
	err := s.db.WithContext(ctx).
		Preload("Subject").
		Order("start_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&res).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list olympiads: %w", err)
	}
	return res, total, nil
}

var olympiadUpdaters = map[models.OlympiadField]func(tx *gorm.DB, v models.OlympiadValue) *gorm.DB{
	models.OlympiadTitle: func(tx *gorm.DB, v models.OlympiadValue) *gorm.DB {
		return tx.Update("title", v.Text)
	},
	models.OlympiadDescription: func(tx *gorm.DB, v models.OlympiadValue) *gorm.DB {
		return tx.Update("description", v.Text)
	},
	models.OlympiadOrganizer: func(tx *gorm.DB, v models.OlympiadValue) *gorm.DB {
		return tx.Update("organizer", v.Text)
	},
	models.OlympiadStartDate: func(tx *gorm.DB, v models.OlympiadValue) *gorm.DB {
		return tx.Update("start_date", util.Day(v.Date))
	},
	models.OlympiadEndDate: func(tx *gorm.DB, v models.OlympiadValue) *gorm.DB {
		return tx.Update("end_date", util.Day(v.Date))
	},
}

// UpdateOlympiadField sets a single field. Dates are not re-validated against
// each other.
func (s *Store) UpdateOlympiadField(ctx context.Context, id uint, v models.OlympiadValue) error {
	upd, ok := olympiadUpdaters[v.Field]
	if !ok {
		return fmt.Errorf("update olympiad: unknown field %q", v.Field)
	}
	res := upd(s.db.WithContext(ctx).Model(&models.Olympiad{}).Where("id = ?", id), v)
	if res.Error != nil {
		return fmt.Errorf("update olympiad: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("olympiad %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteOlympiad removes the olympiad, its applications and their messages, in
// that order.
func (s *Store) DeleteOlympiad(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := first[models.Olympiad](tx.Where("id = ?", id), "olympiad"); err != nil {
			return err
		}
		apps := tx.Model(&models.Application{}).Select("id").Where("olympiad_id = ?", id)
		if err := tx.Where("application_id IN (?)", apps).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Where("olympiad_id = ?", id).Delete(&models.Application{}).Error; err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		if err := tx.Delete(&models.Olympiad{}, id).Error; err != nil {
			return fmt.Errorf("delete olympiad: %w", err)
		}
		return nil
	})
}
