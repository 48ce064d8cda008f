// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"showcase/internal/database"
	"showcase/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory SQLite database closed at test end.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

var userSeq atomic.Int64

// CreateUser inserts an active user with a unique email. Admin users get is_staff.
func CreateUser(t testing.TB, db *gorm.DB, admin bool) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	u := &models.User{
		Email:     fmt.Sprintf("fixture%d@example.is", n),
		FirstName: "Fixture",
		LastName:  fmt.Sprintf("User%d", n),
		IsStaff:   admin,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
