package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormStorage struct {
	db        *gorm.DB
	retention int
}

// NewGormStorage opens a sqlite or postgres database. retention bounds the
// snapshots kept per provider; zero means DefaultSnapshotRetention.
func NewGormStorage(driver, dsn string, retention int) (*GormStorage, error) {
	var gormDialector gorm.Dialector
	switch driver {
	case "postgres":
		gormDialector = postgres.Open(dsn)
	case "sqlite":
		gormDialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(gormDialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return &GormStorage{db: db, retention: normalizeRetention(retention)}, nil
}

func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Provider{}, &UsageSnapshot{})
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Providers

func (s *GormStorage) ListProviders(ctx context.Context) ([]Provider, error) {
	var providers []Provider
	result := s.db.WithContext(ctx).Order("key").Find(&providers)
	return providers, result.Error
}

func (s *GormStorage) UpsertProvider(ctx context.Context, p Provider) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&p).Error
}

// Usage snapshots

func (s *GormStorage) GetLatestSnapshot(ctx context.Context, provider string) (*UsageSnapshot, error) {
	var snap UsageSnapshot
	result := s.db.WithContext(ctx).Order("fetched_at desc").First(&snap, "provider = ?", provider)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &snap, nil
}

func (s *GormStorage) ListSnapshots(ctx context.Context, provider string, limit int) ([]UsageSnapshot, error) {
	q := s.db.WithContext(ctx).Where("provider = ?", provider).Order("fetched_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var snaps []UsageSnapshot
	return snaps, q.Find(&snaps).Error
}

func (s *GormStorage) SaveSnapshot(ctx context.Context, snap UsageSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snap).Error; err != nil {
			return err
		}
		keep := tx.Model(&UsageSnapshot{}).
			Select("id").
			Where("provider = ?", snap.Provider).
			Order("fetched_at desc").
			Limit(s.retention)
		return tx.Where("provider = ? AND id NOT IN (?)", snap.Provider, keep).
			Delete(&UsageSnapshot{}).Error
	})
}
