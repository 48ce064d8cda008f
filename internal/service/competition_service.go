package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompetitionService manages competitions and their project membership.
type CompetitionService struct {
	repo        repository.CompetitionRepository
	projects    repository.ProjectRepository
	invalidator Invalidator
}

// CompetitionInput carries the editable competition fields. Slug is only
// honoured on create; once set it never changes.
type CompetitionInput struct {
	Name        string
	Slug        string
	StartDate   time.Time
	EndDate     time.Time
	PrizeAmount *int64
	Quote       string
	Image       string
	Status      models.CompetitionStatus
	WinnerID    *uuid.UUID
}

// ActiveOrRecent pairs the open competition with the latest closed one.
type ActiveOrRecent struct {
	Active *models.Competition `json:"active"`
	Recent *models.Competition `json:"recent"`
}

func NewCompetitionService(
	repo repository.CompetitionRepository,
	projects repository.ProjectRepository,
	invalidator Invalidator,
) *CompetitionService {
	return &CompetitionService{repo: repo, projects: projects, invalidator: invalidator}
}

// ResolveOpen picks the competition a new project joins. An explicit id must
// name an accepting competition. Without one the most recently started
// accepting competition is used, and nil is returned when there is none.
func (s *CompetitionService) ResolveOpen(ctx context.Context, id *uuid.UUID) (*models.Competition, error) {
	if id == nil {
		c, err := s.repo.LatestAccepting(ctx)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return c, nil
	}

	c, err := s.repo.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewValidationError("Competition not found").WithCause(ErrCompetitionNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	if !c.IsAccepting() {
		return nil, models.NewValidationError("Competition is not accepting applications").WithCause(ErrCompetitionNotAccepting)
	}
	return c, nil
}

func (s *CompetitionService) List(ctx context.Context) ([]models.Competition, error) {
	var competitions []models.Competition
	err := cache.Aside(ctx, cache.CompetitionsKey, &competitions, cache.CompetitionTTL, func() error {
		var err error
		competitions, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return competitions, nil
}

func (s *CompetitionService) ListWithProjects(ctx context.Context) ([]models.Competition, error) {
	competitions, err := s.repo.ListWithApprovedProjects(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return competitions, nil
}

// Get resolves a competition by uuid or, failing that, by slug.
func (s *CompetitionService) Get(ctx context.Context, idOrSlug string) (*models.Competition, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	var (
		c   *models.Competition
		err error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		c, err = s.repo.GetByID(ctx, id)
	} else {
		c, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, competitionNotFound(idOrSlug)
		}
		return nil, models.NewInternalError(err)
	}
	return c, nil
}

// ActiveOrRecent returns the first accepting competition by creation time and
// the closed competition that ended last. Either may be nil.
func (s *CompetitionService) ActiveOrRecent(ctx context.Context) (*ActiveOrRecent, error) {
	var out ActiveOrRecent
	err := cache.Aside(ctx, cache.ActiveOrRecentKey, &out, cache.CompetitionTTL, func() error {
		active, err := s.repo.FirstAccepting(ctx)
		if err != nil {
			return err
		}
		recent, err := s.repo.MostRecentClosed(ctx)
		if err != nil {
			return err
		}
		out = ActiveOrRecent{Active: active, Recent: recent}
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &out, nil
}

func (s *CompetitionService) Create(ctx context.Context, in CompetitionInput) (*models.Competition, error) {
	if err := validateCompetitionInput(in); err != nil {
		return nil, err
	}
	c := &models.Competition{
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		PrizeAmount: in.PrizeAmount,
		Quote:       in.Quote,
		Image:       in.Image,
		Status:      in.Status,
		WinnerID:    in.WinnerID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewConflictError("A competition with this slug already exists")
		}
		return nil, models.NewInternalError(err)
	}
	slog.InfoContext(ctx, "competition created",
		slog.String("competition_id", c.ID.String()),
		slog.String("slug", c.Slug),
		slog.String("status", string(c.Status)),
	)
	enqueueCompetitions(ctx, s.invalidator)
	if c.WinnerID != nil {
		enqueueProject(ctx, s.invalidator, *c.WinnerID)
	}
	created, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return created, nil
}

// Update overwrites the editable fields. The slug is kept.
func (s *CompetitionService) Update(ctx context.Context, id uuid.UUID, in CompetitionInput) (*models.Competition, error) {
	if err := validateCompetitionInput(in); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, competitionNotFound(id)
		}
		return nil, models.NewInternalError(err)
	}
	if in.WinnerID != nil {
		if err := s.requireMember(ctx, id, *in.WinnerID); err != nil {
			return nil, err
		}
	}

	c.Name = strings.TrimSpace(in.Name)
	c.StartDate = in.StartDate
	c.EndDate = in.EndDate
	if in.PrizeAmount != nil {
		c.PrizeAmount = in.PrizeAmount
	}
	c.Quote = in.Quote
	c.Image = in.Image
	if in.Status != "" {
		c.Status = in.Status
	}
	previousWinner := c.WinnerID
	c.WinnerID = in.WinnerID
	c.Winner = nil

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, models.NewInternalError(err)
	}
	enqueueCompetitions(ctx, s.invalidator)
	// Both projects carry the competition in their won list.
	if previousWinner != nil && (c.WinnerID == nil || *previousWinner != *c.WinnerID) {
		enqueueProject(ctx, s.invalidator, *previousWinner)
	}
	if c.WinnerID != nil {
		enqueueProject(ctx, s.invalidator, *c.WinnerID)
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return updated, nil
}

// AddProject attaches an existing project. Attaching twice is a no-op.
func (s *CompetitionService) AddProject(ctx context.Context, competitionID, projectID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return competitionNotFound(competitionID)
		}
		return models.NewInternalError(err)
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return projectNotFound(projectID)
		}
		return models.NewInternalError(err)
	}
	if err := s.repo.AddProject(ctx, competitionID, projectID); err != nil {
		return models.NewInternalError(err)
	}
	enqueueCompetitions(ctx, s.invalidator)
	return nil
}

func (s *CompetitionService) requireMember(ctx context.Context, competitionID, projectID uuid.UUID) error {
	ok, err := s.repo.HasProject(ctx, competitionID, projectID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		return models.NewValidationError("Winner must be a project in this competition").WithCause(ErrInvalidProjects)
	}
	return nil
}

func validateCompetitionInput(in CompetitionInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return models.NewValidationError("Competition name is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return models.NewValidationError("start_date and end_date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return models.NewValidationError("end_date must not be before start_date")
	}
	if in.Status != "" && !in.Status.Valid() {
		return models.NewValidationError("Invalid competition status")
	}
	if in.PrizeAmount != nil && *in.PrizeAmount < 0 {
		return models.NewValidationError("prize_amount must not be negative")
	}
	return nil
}
