package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/storage"
	"showcase/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingInvalidator captures enqueued invalidations.
type recordingInvalidator struct {
	mu           sync.Mutex
	projects     []uuid.UUID
	competitions int
	tags         int
	err          error
}

func (r *recordingInvalidator) EnqueueInvalidate(_ context.Context, projectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects = append(r.projects, projectID)
	return r.err
}

func (r *recordingInvalidator) EnqueueCompetitionsChanged(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.competitions++
	return r.err
}

func (r *recordingInvalidator) EnqueueTagsChanged(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags++
	return r.err
}

// useCache points the package cache at a fresh miniredis for the test.
func useCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

type testEnv struct {
	db           *gorm.DB
	gateway      *storage.MemoryGateway
	invalidator  *recordingInvalidator
	projects     *ProjectService
	images       *ImageService
	tags         *TagService
	competitions *CompetitionService
	reviews      *ReviewService
	users        *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	gateway := storage.NewMemoryGateway("https://cdn.example.is")
	inv := &recordingInvalidator{}

	projectRepo := repository.NewProjectRepository(db)
	imageRepo := repository.NewImageRepository(db)
	competitionRepo := repository.NewCompetitionRepository(db)
	userRepo := repository.NewUserRepository(db)

	tags := NewTagService(repository.NewTagRepository(db), inv)
	competitions := NewCompetitionService(competitionRepo, projectRepo, inv)
	return &testEnv{
		db:           db,
		gateway:      gateway,
		invalidator:  inv,
		tags:         tags,
		competitions: competitions,
		projects:     NewProjectService(projectRepo, imageRepo, tags, competitions, gateway, inv),
		images:       NewImageService(imageRepo, projectRepo, gateway, inv, time.Hour),
		reviews:      NewReviewService(repository.NewReviewRepository(db), competitionRepo, projectRepo, userRepo, gateway),
		users:        NewUserService(userRepo),
	}
}

var userSeq int

func (e *testEnv) user(t *testing.T) *models.User {
	t.Helper()
	userSeq++
	u := &models.User{Email: fmt.Sprintf("svc%d@example.is", userSeq), FirstName: "Svc"}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) tag(t *testing.T, name string, status models.TagStatus) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Status: status}
	require.NoError(t, e.db.Omit("Category").Create(tag).Error)
	return tag
}

func (e *testEnv) competition(t *testing.T, name string, status models.CompetitionStatus, start time.Time) *models.Competition {
	t.Helper()
	c := &models.Competition{Name: name, Status: status, StartDate: start, EndDate: start.AddDate(0, 1, 0)}
	require.NoError(t, e.db.Omit("Projects", "Winner").Create(c).Error)
	return c
}

func (e *testEnv) project(t *testing.T, owner *models.User, title string) *models.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), CreateProjectInput{
		OwnerID:    owner.ID,
		WebsiteURL: "https://" + title + ".is",
		Title:      title,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) setStatus(t *testing.T, p *models.Project, status models.ProjectStatus) {
	t.Helper()
	updates := map[string]any{"status": status}
	if status == models.ProjectStatusRejected {
		updates["rejection_reason"] = "needs work"
	} else {
		updates["rejection_reason"] = nil
	}
	require.NoError(t, e.db.Model(&models.Project{}).Where("id = ?", p.ID).Updates(updates).Error)
	p.Status = status
}
