package migrations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/afhamha/afhamha/internal/app/models"
	"github.com/afhamha/afhamha/internal/pkg/logger"
)

// SchemaMigration records an applied migration
type SchemaMigration struct {
	Version   string    `gorm:"primaryKey;size:255"`
	AppliedAt time.Time `gorm:"not null"`
}

// Migration is one versioned schema change
type Migration struct {
	Version string
	Name    string
	Apply   func(tx *gorm.DB) error
}

// Default returns the migrations of the application, oldest first
func Default() []Migration {
	return []Migration{
		{
			Version: "001",
			Name:    "initial_schema",
			Apply: func(tx *gorm.DB) error {
				return tx.AutoMigrate(models.All()...)
			},
		},
		{
			// accounts created before the trial window existed start it at signup
			Version: "002",
			Name:    "backfill_joined_at",
			Apply: func(tx *gorm.DB) error {
				return tx.Exec("UPDATE users SET joined_at = created_at WHERE joined_at IS NULL").Error
			},
		},
	}
}

// Migrator manages database migrations
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator creates a new migrator for the given migrations
func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	return &Migrator{
		db:         db,
		migrations: sorted,
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).Model(&SchemaMigration{}).Where("version = ?", version).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return count > 0, nil
}

// Migrate applies every pending migration, each in its own transaction
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return err
	}

	for _, mig := range m.migrations {
		applied, err := m.isMigrationApplied(ctx, mig.Version)
		if err != nil {
			return err
		}
		if applied {
			logger.Debug().Str("version", mig.Version).Msg("Migration already applied, skipping")
			continue
		}

		err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mig.Apply(tx); err != nil {
				return fmt.Errorf("error occurred during migration %s_%s: %w", mig.Version, mig.Name, err)
			}
			if err := tx.Create(&SchemaMigration{Version: mig.Version, AppliedAt: time.Now()}).Error; err != nil {
				return fmt.Errorf("failed to record migration: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		logger.Info().Str("version", mig.Version).Str("name", mig.Name).Msg("Migration successfully applied")
	}

	return nil
}

// Applied lists the versions recorded in the tracking table
func (m *Migrator) Applied(ctx context.Context) ([]string, error) {
	var versions []string
	err := m.db.WithContext(ctx).Model(&SchemaMigration{}).Order("version").Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	return versions, nil
}
