package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"showcase/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func titles(projects []models.Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Title)
	}
	return out
}

func TestProjectRepository_CountPending_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "projects" WHERE status = $1`)).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_ListApproved(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, false)

	web := createTag(t, db, "Web", models.TagStatusApproved, nil)
	ai := createTag(t, db, "AI", models.TagStatusApproved, nil)

	alpha := createProject(t, db, owner, "alpha", models.ProjectStatusApproved, "Go", "React")
	beta := createProject(t, db, owner, "beta", models.ProjectStatusApproved, "Python")
	gamma := createProject(t, db, owner, "gamma", models.ProjectStatusApproved, "go", "Postgres")
	createProject(t, db, owner, "delta", models.ProjectStatusPending, "Go")

	require.NoError(t, db.Exec("INSERT INTO project_tags (project_id, tag_id) VALUES (?, ?), (?, ?), (?, ?)",
		alpha.ID, web.ID, alpha.ID, ai.ID, beta.ID, ai.ID).Error)
	require.NoError(t, db.Model(beta).Update("description", "A machine learning toy").Error)
	require.NoError(t, db.Model(alpha).Update("monthly_visitors", 50).Error)
	require.NoError(t, db.Model(gamma).Update("monthly_visitors", 500).Error)

	t.Run("only approved", func(t *testing.T) {
		page, err := repo.ListApproved(ctx, ProjectFilter{SortBy: "title", SortDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta", "gamma"}, titles(page.Projects))
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 1, page.Pages)
	})

	t.Run("tags are distinct", func(t *testing.T) {
		page, err := repo.ListApproved(ctx, ProjectFilter{TagSlugs: []string{"web", "ai"}, SortBy: "title", SortDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta"}, titles(page.Projects))
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("tech terms are AND'ed case-insensitively", func(t *testing.T) {
		page, err := repo.ListApproved(ctx, ProjectFilter{TechStack: []string{"GO"}, SortBy: "title", SortDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "gamma"}, titles(page.Projects))

		page, err = repo.ListApproved(ctx, ProjectFilter{TechStack: []string{"go", "react"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha"}, titles(page.Projects))
	})

	t.Run("search spans title and description", func(t *testing.T) {
		page, err := repo.ListApproved(ctx, ProjectFilter{Search: "MACHINE"})
		require.NoError(t, err)
		assert.Equal(t, []string{"beta"}, titles(page.Projects))

		page, err = repo.ListApproved(ctx, ProjectFilter{Search: "amm"})
		require.NoError(t, err)
		assert.Equal(t, []string{"gamma"}, titles(page.Projects))
	})

	t.Run("sort by visitors", func(t *testing.T) {
		page, err := repo.ListApproved(ctx, ProjectFilter{SortBy: "monthly_visitors"})
		require.NoError(t, err)
		assert.Equal(t, []string{"gamma", "alpha", "beta"}, titles(page.Projects))
	})

	t.Run("unknown sort falls back", func(t *testing.T) {
		_, err := repo.ListApproved(ctx, ProjectFilter{SortBy: "id; DROP TABLE projects"})
		require.NoError(t, err)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := repo.ListApproved(ctx, ProjectFilter{SortBy: "title", SortDir: "asc", Page: 2, PerPage: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"gamma"}, titles(page.Projects))
		assert.Equal(t, 2, page.Pages)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 2, page.PerPage)
	})
}

func TestProjectRepository_FeaturedAndTrending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, false)

	a := createProject(t, db, owner, "a", models.ProjectStatusApproved)
	b := createProject(t, db, owner, "b", models.ProjectStatusApproved)
	c := createProject(t, db, owner, "c", models.ProjectStatusPending)
	require.NoError(t, db.Model(&models.Project{}).Where("id IN ?", ids(a, c)).Update("is_featured", true).Error)
	require.NoError(t, db.Model(b).Update("monthly_visitors", 10).Error)

	featured, err := repo.ListFeatured(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, titles(featured))

	trending, err := repo.ListTrending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, titles(trending))

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestProjectRepository_GetVisible(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, false)
	other := createUser(t, db, false)
	admin := createUser(t, db, true)

	approved := createProject(t, db, owner, "public", models.ProjectStatusApproved)
	pending := createProject(t, db, owner, "private", models.ProjectStatusPending)

	tests := []struct {
		name    string
		project *models.Project
		viewer  Viewer
		visible bool
	}{
		{"anonymous approved", approved, Viewer{}, true},
		{"anonymous pending", pending, Viewer{}, false},
		{"owner pending", pending, Viewer{UserID: owner.ID}, true},
		{"other pending", pending, Viewer{UserID: other.ID}, false},
		{"admin pending", pending, Viewer{UserID: admin.ID, IsAdmin: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetVisible(ctx, tt.project.ID, tt.viewer)
			if tt.visible {
				require.NoError(t, err)
				assert.Equal(t, tt.project.ID, got.ID)
				return
			}
			assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		})
	}
}

func TestProjectRepository_CreateUpdateDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, false)
	tag := createTag(t, db, "Web", models.TagStatusApproved, nil)
	comp := createCompetition(t, db, "Haust", models.CompetitionStatusAccepting, time.Now())

	project := &models.Project{OwnerID: owner.ID, Title: "site", WebsiteURL: "https://site.is"}
	require.NoError(t, repo.Create(ctx, project, []uuid.UUID{tag.ID, tag.ID}, &comp.ID))

	loaded, err := repo.GetOwned(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, models.ProjectStatusPending, loaded.Status)
	assert.Equal(t, time.Now().UTC().Format("2006-01"), loaded.SubmissionMonth)

	has, err := NewCompetitionRepository(db).HasProject(ctx, comp.ID, project.ID)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = repo.GetOwned(ctx, project.ID, owner.ID+100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	loaded.Tagline = "new tagline"
	require.NoError(t, repo.Update(ctx, loaded, nil))
	loaded, err = repo.GetOwned(ctx, project.ID, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Tags)
	assert.Equal(t, "new tagline", loaded.Tagline)

	require.NoError(t, db.Create(&models.ProjectImage{ProjectID: project.ID, StorageKey: "k"}).Error)
	require.NoError(t, db.Model(comp).Update("winner_id", project.ID).Error)

	require.NoError(t, repo.Delete(ctx, project.ID))
	var remaining int64
	db.Table("competition_projects").Where("project_id = ?", project.ID).Count(&remaining)
	assert.Zero(t, remaining)
	db.Model(&models.ProjectImage{}).Where("project_id = ?", project.ID).Count(&remaining)
	assert.Zero(t, remaining)

	var reloaded models.Competition
	require.NoError(t, db.First(&reloaded, "id = ?", comp.ID).Error)
	assert.Nil(t, reloaded.WinnerID)

	assert.ErrorIs(t, repo.Delete(ctx, project.ID), gorm.ErrRecordNotFound)
}

func TestProjectRepository_GetForReviewer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProjectRepository(db)
	reviews := NewReviewRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, false)
	reviewer := createUser(t, db, false)

	comp := createCompetition(t, db, "Vor", models.CompetitionStatusAccepting, time.Now())
	in := createProject(t, db, owner, "in", models.ProjectStatusApproved)
	iced := createProject(t, db, owner, "iced", models.ProjectStatusIceBox)
	outside := createProject(t, db, owner, "outside", models.ProjectStatusApproved)
	attach(t, db, comp, in, iced)

	_, err := repo.GetForReviewer(ctx, in.ID, reviewer.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = reviews.Assign(ctx, reviewer.ID, comp.ID)
	require.NoError(t, err)

	got, err := repo.GetForReviewer(ctx, in.ID, reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)

	_, err = repo.GetForReviewer(ctx, iced.ID, reviewer.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetForReviewer(ctx, outside.ID, reviewer.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPageHelpers(t *testing.T) {
	page, perPage := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPerPage, perPage)

	_, perPage = NormalizePage(3, 1000)
	assert.Equal(t, MaxPerPage, perPage)

	assert.Equal(t, 0, PageCount(0, 20))
	assert.Equal(t, 1, PageCount(20, 20))
	assert.Equal(t, 2, PageCount(21, 20))
}
