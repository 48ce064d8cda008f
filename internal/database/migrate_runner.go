package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"showcase/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog records an applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Migrator applies the SQL migrations and tracks them in migration_logs.
//
// The scripts are written for PostgreSQL. On SQLite the tables come from the
// model registry instead, and the migrator records the versions that build
// stands in for, so status and pending checks read the same on both drivers.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, migrations: all}, nil
}

func (m *Migrator) driver() string {
	return m.db.Dialector.Name()
}

func (m *Migrator) onSQLite() bool {
	return m.driver() == "sqlite"
}

// Applied returns the recorded migrations in version order. A database that
// has never been migrated has none.
func (m *Migrator) Applied(ctx context.Context) ([]MigrationLog, error) {
	if !m.db.WithContext(ctx).Migrator().HasTable(&MigrationLog{}) {
		return nil, nil
	}
	var logs []MigrationLog
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return logs, nil
}

// Pending returns the migrations not yet recorded, together with the recorded
// ones. A recorded version this build does not know means the database is
// ahead of the code and is an error.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, []MigrationLog, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, nil, err
	}

	done := make(map[int]bool, len(applied))
	var unknown []string
	for _, l := range applied {
		done[l.Version] = true
		if _, ok := findMigration(m.migrations, l.Version); !ok {
			unknown = append(unknown, fmt.Sprintf("%06d_%s", l.Version, l.Name))
		}
	}
	if len(unknown) > 0 {
		return nil, applied, fmt.Errorf("database has migrations this build does not know: %s",
			strings.Join(unknown, ", "))
	}

	var pending []Migration
	for _, mg := range m.migrations {
		if !done[mg.Version] {
			pending = append(pending, mg)
		}
	}
	return pending, applied, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns the ones it applied.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return nil, fmt.Errorf("ensure migration_logs: %w", err)
	}
	pending, _, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		middleware.Logger.Debug("schema is up to date", slog.String("driver", m.driver()))
		return nil, nil
	}

	if m.onSQLite() {
		if err := runAutoMigrate(m.db.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("build sqlite schema: %w", err)
		}
	}

	var applied []Migration
	for _, mg := range pending {
		start := time.Now()
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if !m.onSQLite() {
				if err := tx.Exec(mg.Up).Error; err != nil {
					return err
				}
			}
			return tx.Create(&MigrationLog{Version: mg.Version, Name: mg.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("apply %s: %w", mg, err)
		}
		middleware.Logger.Info("migration applied",
			slog.String("migration", mg.String()),
			slog.String("driver", m.driver()),
			slog.Duration("took", time.Since(start)),
		)
		applied = append(applied, mg)
	}
	return applied, nil
}

// ErrRollbackUnsupported is returned by Down on SQLite, where there are no
// down scripts to run.
var ErrRollbackUnsupported = errors.New("rollback needs PostgreSQL; delete the SQLite file to rebuild the schema")

// Down reverts the most recently applied migration. version must name it:
// later scripts assume the tables and indexes of earlier ones.
func (m *Migrator) Down(ctx context.Context, version int) error {
	if m.onSQLite() {
		return ErrRollbackUnsupported
	}
	_, applied, err := m.Pending(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return errors.New("no migrations have been applied")
	}
	latest := applied[len(applied)-1]
	if latest.Version != version {
		return fmt.Errorf("migration %06d is not the latest applied one (%06d_%s)", version, latest.Version, latest.Name)
	}
	mg, _ := findMigration(m.migrations, version)

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mg.Down).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return fmt.Errorf("roll back %s: %w", mg, err)
	}
	middleware.Logger.Info("migration rolled back", slog.String("migration", mg.String()))
	return nil
}
