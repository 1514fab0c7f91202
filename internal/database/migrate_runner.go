package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"social/internal/middleware"

	"gorm.io/gorm"
)

// SchemaVersion is one row of the ledger of applied SQL migrations.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

// TableName returns the ledger table name.
func (SchemaVersion) TableName() string {
	return "schema_versions"
}

// AppliedVersions lists applied migration versions in ascending order. A
// database that has never been migrated reports none.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	db = db.WithContext(ctx)
	if !db.Migrator().HasTable(&SchemaVersion{}) {
		return []int{}, nil
	}
	versions := []int{}
	if err := db.Model(&SchemaVersion{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read schema versions: %w", err)
	}
	return versions, nil
}

// RunMigrations applies every embedded migration that is not yet recorded.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return migrateUp(ctx, db, migrations)
}

// RollbackMigration reverts version, which must be the latest applied one.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return migrateDown(ctx, db, migrations, version)
}

// migrateUp runs each pending migration and its ledger row in one transaction,
// so a failed script leaves no record behind.
func migrateUp(ctx context.Context, db *gorm.DB, set []Migration) error {
	if err := db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return fmt.Errorf("prepare schema_versions: %w", err)
	}

	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return err
	}
	if err := validateAppliedVersions(applied, set); err != nil {
		return err
	}

	for _, m := range pendingMigrations(applied, set) {
		middleware.Logger.Info("applying migration", slog.String("migration", m.String()))
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaVersion{Version: m.Version, Name: m.Name}).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.String(), err)
		}
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, set []Migration, version int) error {
	idx := slices.IndexFunc(set, func(m Migration) bool { return m.Version == version })
	if idx < 0 {
		return fmt.Errorf("migration version %d not found", version)
	}
	m := set[idx]

	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %s has not been applied", m.String())
	}
	if latest := LatestApplied(applied); latest != version {
		return fmt.Errorf("migration %s is not the latest applied (%06d); roll that back first", m.String(), latest)
	}

	middleware.Logger.Info("rolling back migration", slog.String("migration", m.String()))
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return err
		}
		return tx.Delete(&SchemaVersion{}, "version = ?", version).Error
	})
	if err != nil {
		return fmt.Errorf("roll back migration %s: %w", m.String(), err)
	}
	return nil
}

func pendingMigrations(applied []int, set []Migration) []Migration {
	var pending []Migration
	for _, m := range set {
		if !slices.Contains(applied, m.Version) {
			pending = append(pending, m)
		}
	}
	return pending
}

// validateAppliedVersions refuses to run when the database records a version
// this build does not ship.
func validateAppliedVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, version := range applied {
		if !slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == version }) {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("schema_versions records versions unknown to this build: %s", strings.Join(unknown, ", "))
}
