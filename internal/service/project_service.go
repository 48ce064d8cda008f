package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/repository"
	"showcase/internal/storage"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UntitledProject is the title used when none can be derived from the URL.
const UntitledProject = "Untitled Project"

// ProjectService runs the project lifecycle: submission, edits, resubmission
// and staff moderation.
type ProjectService struct {
	projects     repository.ProjectRepository
	images       repository.ImageRepository
	tags         *TagService
	competitions *CompetitionService
	storage      storage.Gateway
	invalidator  Invalidator
}

type CreateProjectInput struct {
	OwnerID         uint
	WebsiteURL      string
	Title           string
	Tagline         string
	Description     string
	LongDescription string
	GithubURL       string
	DemoURL         string
	TechStack       []string
	TagIDs          []uuid.UUID
	CompetitionID   *uuid.UUID
}

// UpdateProjectInput leaves nil fields unchanged. TagIDs replaces the tag set;
// nil or empty clears it.
type UpdateProjectInput struct {
	ProjectID       uuid.UUID
	OwnerID         uint
	WebsiteURL      string
	Title           *string
	Tagline         *string
	Description     *string
	LongDescription *string
	GithubURL       *string
	DemoURL         *string
	TechStack       []string
	TagIDs          []uuid.UUID
}

func NewProjectService(
	projects repository.ProjectRepository,
	images repository.ImageRepository,
	tags *TagService,
	competitions *CompetitionService,
	gateway storage.Gateway,
	invalidator Invalidator,
) *ProjectService {
	return &ProjectService{
		projects:     projects,
		images:       images,
		tags:         tags,
		competitions: competitions,
		storage:      gateway,
		invalidator:  invalidator,
	}
}

// DeriveTitleFromURL turns a website URL into a project title. GitHub
// repository URLs yield the repository name; anything else yields the host
// without a leading "www.".
func DeriveTitleFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return UntitledProject
	}
	host := strings.TrimPrefix(u.Host, "www.")
	if host == "github.com" {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 2 && parts[1] != "" {
			return parts[1]
		}
	}
	if host == "" {
		return UntitledProject
	}
	return host
}

// Create submits a new pending project. Tags and competition are resolved
// before anything is written, so a failure leaves no project behind.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(in.WebsiteURL) == "" {
		return nil, models.NewValidationError("website_url is required")
	}
	if len(in.TagIDs) > 0 {
		if _, err := s.tags.Validate(ctx, in.TagIDs); err != nil {
			return nil, err
		}
	}
	competition, err := s.competitions.ResolveOpen(ctx, in.CompetitionID)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		OwnerID:         in.OwnerID,
		WebsiteURL:      strings.TrimSpace(in.WebsiteURL),
		Title:           strings.TrimSpace(in.Title),
		Tagline:         in.Tagline,
		Description:     in.Description,
		LongDescription: in.LongDescription,
		GithubURL:       in.GithubURL,
		DemoURL:         in.DemoURL,
		TechStack:       techStack(in.TechStack),
		Status:          models.ProjectStatusPending,
	}
	if project.Title == "" {
		project.Title = truncate(DeriveTitleFromURL(project.WebsiteURL), models.ProjectTitleMaxLen)
	}

	var competitionID *uuid.UUID
	if competition != nil {
		competitionID = &competition.ID
	}
	if err := s.projects.Create(ctx, project, in.TagIDs, competitionID); err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.ProjectTransitions.WithLabelValues("created").Inc()
	attrs := []any{
		slog.String("project_id", project.ID.String()),
		slog.Uint64("owner_id", uint64(in.OwnerID)),
	}
	if competitionID != nil {
		attrs = append(attrs, slog.String("competition_id", competitionID.String()))
	}
	slog.InfoContext(ctx, "project submitted", attrs...)

	enqueueProject(ctx, s.invalidator, project.ID)
	return s.GetOwned(ctx, project.ID, in.OwnerID)
}

// Update edits an owned project. A rejected project returns to pending.
func (s *ProjectService) Update(ctx context.Context, in UpdateProjectInput) (*models.Project, error) {
	project, err := s.GetOwned(ctx, in.ProjectID, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.WebsiteURL) == "" {
		return nil, models.NewValidationError("website_url is required")
	}
	if len(in.TagIDs) > 0 {
		if _, err := s.tags.Validate(ctx, in.TagIDs); err != nil {
			return nil, err
		}
	}

	project.WebsiteURL = strings.TrimSpace(in.WebsiteURL)
	setIfPresent(&project.Tagline, in.Tagline)
	setIfPresent(&project.Description, in.Description)
	setIfPresent(&project.LongDescription, in.LongDescription)
	setIfPresent(&project.GithubURL, in.GithubURL)
	setIfPresent(&project.DemoURL, in.DemoURL)
	if in.TechStack != nil {
		project.TechStack = techStack(in.TechStack)
	}
	project.Title = ""
	if in.Title != nil {
		project.Title = strings.TrimSpace(*in.Title)
	}
	if project.Title == "" {
		project.Title = truncate(DeriveTitleFromURL(project.WebsiteURL), models.ProjectTitleMaxLen)
	}
	resubmitted := project.ReturnToPending()

	project.Tags = nil
	project.Images = nil
	project.Owner = nil
	if err := s.projects.Update(ctx, project, in.TagIDs); err != nil {
		return nil, models.NewInternalError(err)
	}

	event := "updated"
	if resubmitted {
		event = "resubmitted"
	}
	observability.ProjectTransitions.WithLabelValues(event).Inc()
	enqueueProject(ctx, s.invalidator, project.ID)
	return s.GetOwned(ctx, project.ID, in.OwnerID)
}

// Delete removes an owned project and, after commit, its stored images.
func (s *ProjectService) Delete(ctx context.Context, projectID uuid.UUID, ownerID uint) error {
	if _, err := s.GetOwned(ctx, projectID, ownerID); err != nil {
		return err
	}
	images, err := s.images.ListByProject(ctx, projectID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.projects.Delete(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return projectNotFound(projectID)
		}
		return models.NewInternalError(err)
	}

	observability.ProjectTransitions.WithLabelValues("deleted").Inc()
	slog.InfoContext(ctx, "project deleted",
		slog.String("project_id", projectID.String()),
		slog.Int("images", len(images)),
	)
	enqueueProject(ctx, s.invalidator, projectID)

	for _, img := range images {
		deleteObject(ctx, s.storage, img.StorageKey)
	}
	return nil
}

// Resubmit returns a rejected project to the review queue.
func (s *ProjectService) Resubmit(ctx context.Context, projectID uuid.UUID, ownerID uint) (*models.Project, error) {
	project, err := s.GetOwned(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}
	if !project.ReturnToPending() {
		return nil, models.NewInvalidStateError("Only rejected projects can be resubmitted").WithCause(ErrInvalidProjectState)
	}
	if err := s.projects.Save(ctx, project); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.ProjectTransitions.WithLabelValues("resubmitted").Inc()
	enqueueProject(ctx, s.invalidator, project.ID)
	return project, nil
}

// GetOwned loads a project only for its owner. Other callers get not found.
func (s *ProjectService) GetOwned(ctx context.Context, projectID uuid.UUID, ownerID uint) (*models.Project, error) {
	project, err := s.projects.GetOwned(ctx, projectID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, projectNotFound(projectID)
		}
		return nil, models.NewInternalError(err)
	}
	s.attachURLs(project)
	return project, nil
}

// GetVisible returns approved projects to anyone and other projects to their
// owner or an admin. Anonymous reads are cached.
func (s *ProjectService) GetVisible(ctx context.Context, projectID uuid.UUID, viewer repository.Viewer) (*models.Project, error) {
	var (
		project *models.Project
		err     error
	)
	if viewer.UserID == 0 && !viewer.IsAdmin {
		var cached models.Project
		err = cache.Aside(ctx, cache.ProjectKey(projectID), &cached, cache.ProjectTTL, func() error {
			p, err := s.projects.GetVisible(ctx, projectID, viewer)
			if err != nil {
				return err
			}
			cached = *p
			return nil
		})
		project = &cached
	} else {
		project, err = s.projects.GetVisible(ctx, projectID, viewer)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, projectNotFound(projectID)
		}
		return nil, models.NewInternalError(err)
	}
	s.attachURLs(project)
	return project, nil
}

func (s *ProjectService) ListApproved(ctx context.Context, filter repository.ProjectFilter) (*repository.ProjectPage, error) {
	page, err := s.projects.ListApproved(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range page.Projects {
		s.attachURLs(&page.Projects[i])
	}
	return page, nil
}

func (s *ProjectService) ListFeatured(ctx context.Context) ([]models.Project, error) {
	return s.cachedList(ctx, cache.FeaturedProjectsKey, s.projects.ListFeatured)
}

func (s *ProjectService) ListTrending(ctx context.Context) ([]models.Project, error) {
	return s.cachedList(ctx, cache.TrendingProjectsKey, s.projects.ListTrending)
}

func (s *ProjectService) cachedList(ctx context.Context, key string, fetch func(context.Context) ([]models.Project, error)) ([]models.Project, error) {
	var projects []models.Project
	err := cache.Aside(ctx, key, &projects, cache.ProjectListTTL, func() error {
		var err error
		projects, err = fetch(ctx)
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range projects {
		s.attachURLs(&projects[i])
	}
	return projects, nil
}

func (s *ProjectService) ListMine(ctx context.Context, ownerID uint) ([]models.Project, error) {
	projects, err := s.projects.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range projects {
		s.attachURLs(&projects[i])
	}
	return projects, nil
}

func (s *ProjectService) CountPending(ctx context.Context) (int64, error) {
	n, err := s.projects.CountPending(ctx)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// Approve publishes a project and records who approved it.
func (s *ProjectService) Approve(ctx context.Context, projectID uuid.UUID, adminID uint) (*models.Project, error) {
	return s.moderate(ctx, projectID, "approved", func(p *models.Project) error {
		now := time.Now().UTC()
		p.Status = models.ProjectStatusApproved
		p.ApprovedAt = &now
		p.ApprovedByID = &adminID
		return nil
	})
}

// Reject sends a project back to its owner with a reason.
func (s *ProjectService) Reject(ctx context.Context, projectID uuid.UUID, reason string) (*models.Project, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.NewValidationError("A rejection reason is required")
	}
	return s.moderate(ctx, projectID, "rejected", func(p *models.Project) error {
		p.Status = models.ProjectStatusRejected
		p.RejectionReason = &reason
		return nil
	})
}

// IceBox parks a project outside the public listing and the review pool.
func (s *ProjectService) IceBox(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	return s.moderate(ctx, projectID, "ice_boxed", func(p *models.Project) error {
		p.Status = models.ProjectStatusIceBox
		return nil
	})
}

func (s *ProjectService) SetFeatured(ctx context.Context, projectID uuid.UUID, featured bool) (*models.Project, error) {
	event := "unfeatured"
	if featured {
		event = "featured"
	}
	return s.moderate(ctx, projectID, event, func(p *models.Project) error {
		if featured && p.Status != models.ProjectStatusApproved {
			return models.NewInvalidStateError("Only approved projects can be featured").WithCause(ErrInvalidProjectState)
		}
		p.IsFeatured = featured
		return nil
	})
}

func (s *ProjectService) moderate(ctx context.Context, projectID uuid.UUID, event string, apply func(*models.Project) error) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, projectNotFound(projectID)
		}
		return nil, models.NewInternalError(err)
	}
	if err := apply(project); err != nil {
		return nil, err
	}
	if err := s.projects.Save(ctx, project); err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.ProjectTransitions.WithLabelValues(event).Inc()
	slog.InfoContext(ctx, "project moderated",
		slog.String("project_id", project.ID.String()),
		slog.String("event", event),
		slog.String("status", string(project.Status)),
	)
	enqueueProject(ctx, s.invalidator, project.ID)
	s.attachURLs(project)
	return project, nil
}

func (s *ProjectService) attachURLs(p *models.Project) {
	if s.storage == nil {
		return
	}
	for i := range p.Images {
		p.Images[i].URL = s.storage.PublicURL(p.Images[i].StorageKey)
	}
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func techStack(items []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
