package server

import (
	"testing"

	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type projectList struct {
	Projects             []models.Project `json:"projects"`
	Total                int64            `json:"total"`
	PendingProjectsCount int64            `json:"pending_projects_count"`
}

func (a *testApp) createProject(t *testing.T, owner *models.User, body map[string]any) models.Project {
	t.Helper()
	var project models.Project
	status := a.do(t, fiber.MethodPost, "/api/my/projects", tokenFor(t, owner), body, &project)
	require.Equal(t, fiber.StatusCreated, status)
	return project
}

func TestProjectLifecycle(t *testing.T) {
	a := newTestApp(t)
	owner := a.user(t, false)
	stranger := a.user(t, false)
	admin := a.user(t, true)

	project := a.createProject(t, owner, map[string]any{
		"website_url": "https://github.com/acme/widget",
		"tech_stack":  []string{"Go", "Postgres"},
	})
	assert.Equal(t, "widget", project.Title)
	assert.Equal(t, models.ProjectStatusPending, project.Status)
	path := "/api/projects/" + project.ID.String()

	// Pending projects are hidden from everyone but the owner and admins.
	assert.Equal(t, fiber.StatusNotFound, a.do(t, fiber.MethodGet, path, "", nil, nil))
	assert.Equal(t, fiber.StatusNotFound, a.do(t, fiber.MethodGet, path, tokenFor(t, stranger), nil, nil))
	assert.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, path, tokenFor(t, owner), nil, nil))
	assert.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, path, tokenFor(t, admin), nil, nil))

	var list projectList
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/projects", "", nil, &list))
	assert.Zero(t, list.Total)
	assert.Equal(t, int64(1), list.PendingProjectsCount)

	var approved models.Project
	status := a.do(t, fiber.MethodPost, "/api/admin/projects/"+project.ID.String()+"/approve", tokenFor(t, admin), nil, &approved)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.ProjectStatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/projects?tech=go", "", nil, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Zero(t, list.PendingProjectsCount)
	assert.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, path, "", nil, nil))

	t.Run("only the owner may edit", func(t *testing.T) {
		status := a.do(t, fiber.MethodPut, "/api/my/projects/"+project.ID.String(), tokenFor(t, stranger),
			map[string]any{"website_url": "https://elsewhere.is"}, nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("reject needs a reason", func(t *testing.T) {
		var body models.ErrorResponse
		status := a.do(t, fiber.MethodPost, "/api/admin/projects/"+project.ID.String()+"/reject",
			tokenFor(t, admin), map[string]any{}, &body)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, models.CodeValidation, body.Code)
	})

	t.Run("reject then resubmit", func(t *testing.T) {
		var rejected models.Project
		status := a.do(t, fiber.MethodPost, "/api/admin/projects/"+project.ID.String()+"/reject",
			tokenFor(t, admin), map[string]any{"reason": "Broken link"}, &rejected)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, models.ProjectStatusRejected, rejected.Status)
		require.NotNil(t, rejected.RejectionReason)

		var resubmitted models.Project
		status = a.do(t, fiber.MethodPost, "/api/my/projects/"+project.ID.String()+"/resubmit",
			tokenFor(t, owner), nil, &resubmitted)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, models.ProjectStatusPending, resubmitted.Status)
		assert.Nil(t, resubmitted.RejectionReason)
	})

	t.Run("featuring a pending project is refused", func(t *testing.T) {
		status := a.do(t, fiber.MethodPost, "/api/admin/projects/"+project.ID.String()+"/feature",
			tokenFor(t, admin), map[string]any{"featured": true}, nil)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("delete", func(t *testing.T) {
		status := a.do(t, fiber.MethodDelete, "/api/my/projects/"+project.ID.String(), tokenFor(t, owner), nil, nil)
		assert.Equal(t, fiber.StatusNoContent, status)
		status = a.do(t, fiber.MethodGet, "/api/my/projects/"+project.ID.String(), tokenFor(t, owner), nil, nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}

func TestCreateProject_UnknownTag(t *testing.T) {
	a := newTestApp(t)
	owner := a.user(t, false)

	var body models.ErrorResponse
	status := a.do(t, fiber.MethodPost, "/api/my/projects", tokenFor(t, owner), map[string]any{
		"website_url": "https://tagged.is",
		"tag_ids":     []string{"00000000-0000-0000-0000-000000000042"},
	}, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)

	var mine []models.Project
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/my/projects", tokenFor(t, owner), nil, &mine))
	assert.Empty(t, mine)
}

func TestImageUploadFlow(t *testing.T) {
	a := newTestApp(t)
	owner := a.user(t, false)
	project := a.createProject(t, owner, map[string]any{"website_url": "https://pictures.is"})
	base := "/api/my/projects/" + project.ID.String() + "/images"
	token := tokenFor(t, owner)

	var body models.ErrorResponse
	status := a.do(t, fiber.MethodPost, base+"/upload-url", token, map[string]any{
		"filename": "shot.bmp", "content_type": "image/bmp", "file_size": 1024,
	}, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body.Error, "image/png")

	var descriptor service.UploadDescriptor
	status = a.do(t, fiber.MethodPost, base+"/upload-url", token, map[string]any{
		"filename": "shot.png", "content_type": "image/png", "file_size": 1024,
	}, &descriptor)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, fiber.MethodPut, descriptor.Method)
	assert.NotEmpty(t, descriptor.UploadURL)
	completePath := base + "/" + descriptor.ImageID.String() + "/complete"

	// The object has not been uploaded yet.
	status = a.do(t, fiber.MethodPost, completePath, token, nil, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Image not found in storage. Upload may have failed.", body.Error)

	a.gateway.Put(descriptor.StorageKey)
	var image models.ProjectImage
	status = a.do(t, fiber.MethodPost, completePath, token, map[string]any{"width": 800, "height": 600}, &image)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, image.IsMain)
	assert.Equal(t, models.ImageUploadStatusUploaded, image.UploadStatus)
	require.NotNil(t, image.Width)
	assert.Equal(t, 800, *image.Width)
	assert.Contains(t, image.URL, descriptor.StorageKey)

	var images []models.ProjectImage
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, base, token, nil, &images))
	assert.Len(t, images, 1)

	stranger := a.user(t, false)
	assert.Equal(t, fiber.StatusNotFound, a.do(t, fiber.MethodGet, base, tokenFor(t, stranger), nil, nil))

	status = a.do(t, fiber.MethodDelete, base+"/"+descriptor.ImageID.String(), token, nil, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.Zero(t, a.gateway.Len())
}

func TestReviewRankingFlow(t *testing.T) {
	a := newTestApp(t)
	admin := a.user(t, true)
	owner := a.user(t, false)
	reviewer := a.user(t, false)
	outsider := a.user(t, false)

	var competition models.Competition
	status := a.do(t, fiber.MethodPost, "/api/admin/competitions", tokenFor(t, admin), map[string]any{
		"name":       "Web Awards 2026",
		"start_date": "2026-01-01T00:00:00Z",
		"end_date":   "2026-12-31T00:00:00Z",
		"status":     "accepting_applications",
	}, &competition)
	require.Equal(t, fiber.StatusCreated, status)

	first := a.createProject(t, owner, map[string]any{"website_url": "https://first.is"})
	second := a.createProject(t, owner, map[string]any{"website_url": "https://second.is"})
	for _, p := range []models.Project{first, second} {
		status := a.do(t, fiber.MethodPost, "/api/admin/projects/"+p.ID.String()+"/approve", tokenFor(t, admin), nil, nil)
		require.Equal(t, fiber.StatusOK, status)
	}

	var active service.ActiveOrRecent
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/competitions/active-or-recent", "", nil, &active))
	require.NotNil(t, active.Active)
	assert.Equal(t, competition.ID, active.Active.ID)
	assert.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/competitions/"+competition.Slug, "", nil, nil))

	reviewPath := "/api/admin/competitions/" + competition.ID.String() + "/reviewers"
	status = a.do(t, fiber.MethodPost, reviewPath, tokenFor(t, admin), map[string]any{"user_id": 999999}, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status = a.do(t, fiber.MethodPost, reviewPath, tokenFor(t, admin), map[string]any{"user_id": reviewer.ID}, nil)
	require.Equal(t, fiber.StatusCreated, status)

	var assigned []service.AssignedCompetition
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/my/reviews", tokenFor(t, reviewer), nil, &assigned))
	require.Len(t, assigned, 1)
	assert.Equal(t, int64(2), assigned[0].ProjectCount)

	rankingsPath := "/api/my/reviews/" + competition.ID.String() + "/rankings"
	order := map[string]any{"project_ids": []string{second.ID.String(), first.ID.String()}}

	status = a.do(t, fiber.MethodPut, rankingsPath, tokenFor(t, outsider), order, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	var rankings []models.ProjectRanking
	status = a.do(t, fiber.MethodPut, rankingsPath, tokenFor(t, reviewer), order, &rankings)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, rankings, 2)
	assert.Equal(t, second.ID, rankings[0].ProjectID)
	assert.Equal(t, 1, rankings[0].Position)

	var review service.CompetitionReview
	status = a.do(t, fiber.MethodGet, "/api/my/reviews/"+competition.ID.String(), tokenFor(t, reviewer), nil, &review)
	require.Equal(t, fiber.StatusOK, status)
	for _, p := range review.Projects {
		require.NotNil(t, p.MyPosition)
		if p.ID == first.ID {
			assert.Equal(t, 2, *p.MyPosition)
		}
	}

	status = a.do(t, fiber.MethodGet, "/api/my/reviews/projects/"+first.ID.String(), tokenFor(t, reviewer), nil, nil)
	assert.Equal(t, fiber.StatusOK, status)

	statusPath := "/api/my/reviews/" + competition.ID.String() + "/status"
	status = a.do(t, fiber.MethodPut, statusPath, tokenFor(t, reviewer), map[string]any{"status": "done"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status = a.do(t, fiber.MethodPut, statusPath, tokenFor(t, reviewer), map[string]any{"status": "completed"}, nil)
	require.Equal(t, fiber.StatusOK, status)

	var body models.ErrorResponse
	status = a.do(t, fiber.MethodPut, rankingsPath, tokenFor(t, reviewer), order, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, models.CodeInvalidState, body.Code)
}
