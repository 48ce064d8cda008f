package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"showcase/internal/database"
	"showcase/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
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

var userSeq uint

func createUser(t *testing.T, db *gorm.DB, admin bool) *models.User {
	t.Helper()
	userSeq++
	u := &models.User{
		Email:     fmt.Sprintf("user%d@example.is", userSeq),
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", userSeq),
		IsStaff:   admin,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createProject(t *testing.T, db *gorm.DB, owner *models.User, title string, status models.ProjectStatus, tech ...string) *models.Project {
	t.Helper()
	p := &models.Project{
		OwnerID:    owner.ID,
		Title:      title,
		WebsiteURL: "https://" + title + ".example.is",
		TechStack:  datatypes.JSONSlice[string](tech),
		Status:     status,
	}
	if status == models.ProjectStatusRejected {
		reason := "incomplete"
		p.RejectionReason = &reason
	}
	require.NoError(t, db.Omit("Tags", "Images", "Owner").Create(p).Error)
	return p
}

func createTag(t *testing.T, db *gorm.DB, name string, status models.TagStatus, category *models.TagCategory) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Status: status}
	if category != nil {
		tag.CategoryID = &category.ID
	}
	require.NoError(t, db.Omit("Category").Create(tag).Error)
	return tag
}

func createCompetition(t *testing.T, db *gorm.DB, name string, status models.CompetitionStatus, start time.Time) *models.Competition {
	t.Helper()
	c := &models.Competition{
		Name:      name,
		Status:    status,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
	}
	require.NoError(t, db.Omit("Projects", "Winner").Create(c).Error)
	return c
}

func attach(t *testing.T, db *gorm.DB, competition *models.Competition, projects ...*models.Project) {
	t.Helper()
	repo := NewCompetitionRepository(db)
	for _, p := range projects {
		require.NoError(t, repo.AddProject(context.Background(), competition.ID, p.ID))
	}
}

func ids(projects ...*models.Project) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.ID)
	}
	return out
}
