package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util/slogx"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type Options struct {
	MaxOpenConns  int           `toml:"max-open-conns"`
	MinIdleConns  int           `toml:"min-idle-conns"`
	SlowThreshold time.Duration `toml:"slow-threshold"`

	// Lazy skips the connectivity check on open.
	Lazy bool `toml:"-"`
}

func (o *Options) FillDefaults() {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 10
	}
	if o.MinIdleConns <= 0 {
		o.MinIdleConns = 1
	}
	if o.SlowThreshold <= 0 {
		o.SlowThreshold = 200 * time.Millisecond
	}
}

// Store is the entity repository. It is safe for concurrent use; every call
// takes a pooled connection for its own duration only.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

func PostgresDSN(host, port, user, password, name string) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, name,
	)
}

func OpenPostgres(log *slog.Logger, dsn string, o Options) (*Store, error) {
	return Open(log, postgres.Open(dsn), o)
}

func Open(log *slog.Logger, dialector gorm.Dialector, o Options) (*Store, error) {
	o.FillDefaults()

	log.Info("opening db")
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               Logger(log, o),
		TranslateError:       true,
		DisableAutomaticPing: o.Lazy,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MinIdleConns)

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() {
	db, err := s.db.DB()
	if err != nil {
		s.log.Error("could not get underlying db", slogx.Err(err))
		return
	}
	if err := db.Close(); err != nil {
		s.log.Error("could not close db", slogx.Err(err))
	}
}

func (s *Store) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	return nil
}

// Migrate creates missing tables and seeds the reference lists.
func (s *Store) Migrate(ctx context.Context) error {
	s.log.Info("migrating db")
	if err := s.db.WithContext(ctx).AutoMigrate(models.All...); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	if err := s.seedReference(ctx); err != nil {
		return err
	}
	s.log.Info("db migrated")
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func first[T any](tx *gorm.DB, what string) (*T, error) {
	var res []T
	if err := tx.Limit(1).Find(&res).Error; err != nil {
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return &res[0], nil
}
