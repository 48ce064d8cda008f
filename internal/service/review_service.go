package service

import (
	"context"
	"errors"
	"log/slog"

	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/repository"
	"showcase/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewService lets assigned reviewers rank the projects of a competition.
type ReviewService struct {
	reviews      repository.ReviewRepository
	competitions repository.CompetitionRepository
	projects     repository.ProjectRepository
	users        repository.UserRepository
	storage      storage.Gateway
}

// AssignedCompetition is one entry of a reviewer's queue.
type AssignedCompetition struct {
	Competition  *models.Competition `json:"competition"`
	MyStatus     models.ReviewStatus `json:"my_review_status"`
	ProjectCount int64               `json:"project_count"`
}

// RankedProject is a project with the caller's position for it, if ranked.
type RankedProject struct {
	models.Project
	MyPosition *int `json:"my_position"`
}

// CompetitionReview is a competition as one reviewer sees it.
type CompetitionReview struct {
	Competition *models.Competition `json:"competition"`
	MyStatus    models.ReviewStatus `json:"my_review_status"`
	Projects    []RankedProject     `json:"projects"`
}

func NewReviewService(
	reviews repository.ReviewRepository,
	competitions repository.CompetitionRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	gateway storage.Gateway,
) *ReviewService {
	return &ReviewService{
		reviews:      reviews,
		competitions: competitions,
		projects:     projects,
		users:        users,
		storage:      gateway,
	}
}

func (s *ReviewService) ListAssigned(ctx context.Context, reviewerID uint) ([]AssignedCompetition, error) {
	assignments, err := s.reviews.ListAssignments(ctx, reviewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make([]AssignedCompetition, 0, len(assignments))
	for _, a := range assignments {
		count, err := s.competitions.CountReviewableProjects(ctx, a.CompetitionID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		out = append(out, AssignedCompetition{
			Competition:  a.Competition,
			MyStatus:     a.Status,
			ProjectCount: count,
		})
	}
	return out, nil
}

// GetCompetition returns the competition's reviewable projects annotated with
// this reviewer's positions.
func (s *ReviewService) GetCompetition(ctx context.Context, reviewerID uint, competitionID uuid.UUID) (*CompetitionReview, error) {
	assignment, err := s.assignment(ctx, reviewerID, competitionID)
	if err != nil {
		return nil, err
	}
	projects, err := s.competitions.ReviewableProjects(ctx, competitionID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	rankings, err := s.reviews.Rankings(ctx, reviewerID, competitionID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	positions := make(map[uuid.UUID]int, len(rankings))
	for _, r := range rankings {
		positions[r.ProjectID] = r.Position
	}

	ranked := make([]RankedProject, 0, len(projects))
	for _, p := range projects {
		rp := RankedProject{Project: p}
		if pos, ok := positions[p.ID]; ok {
			rp.MyPosition = &pos
		}
		s.attachURLs(&rp.Project)
		ranked = append(ranked, rp)
	}
	return &CompetitionReview{
		Competition: assignment.Competition,
		MyStatus:    assignment.Status,
		Projects:    ranked,
	}, nil
}

// UpdateRankings replaces the reviewer's ordering. Every id must be a distinct
// reviewable project of the competition.
func (s *ReviewService) UpdateRankings(ctx context.Context, reviewerID uint, competitionID uuid.UUID, projectIDs []uuid.UUID) ([]models.ProjectRanking, error) {
	assignment, err := s.assignment(ctx, reviewerID, competitionID)
	if err != nil {
		return nil, err
	}
	if assignment.Status == models.ReviewStatusCompleted {
		return nil, models.NewInvalidStateError("Review is already completed").WithCause(ErrReviewCompleted)
	}

	projects, err := s.competitions.ReviewableProjects(ctx, competitionID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	valid := make(map[uuid.UUID]bool, len(projects))
	for _, p := range projects {
		valid[p.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(projectIDs))
	for _, id := range projectIDs {
		if !valid[id] || seen[id] {
			return nil, models.NewValidationError("One or more projects are not part of this competition").WithCause(ErrInvalidProjects)
		}
		seen[id] = true
	}

	rankings, err := s.reviews.ReplaceRankings(ctx, reviewerID, competitionID, projectIDs)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.RankingSubmissions.Inc()
	slog.InfoContext(ctx, "rankings replaced",
		slog.String("competition_id", competitionID.String()),
		slog.Uint64("reviewer_id", uint64(reviewerID)),
		slog.Int("count", len(rankings)),
	)
	return rankings, nil
}

// UpdateStatus overwrites the reviewer's status unconditionally.
func (s *ReviewService) UpdateStatus(ctx context.Context, reviewerID uint, competitionID uuid.UUID, status models.ReviewStatus) (*models.CompetitionReviewer, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("Status must be in_progress or completed")
	}
	assignment, err := s.assignment(ctx, reviewerID, competitionID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.UpdateStatus(ctx, assignment, status); err != nil {
		return nil, models.NewInternalError(err)
	}
	return assignment, nil
}

// GetProject returns a project the reviewer may look at.
func (s *ReviewService) GetProject(ctx context.Context, reviewerID uint, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetForReviewer(ctx, projectID, reviewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, projectNotFound(projectID)
		}
		return nil, models.NewInternalError(err)
	}
	s.attachURLs(project)
	return project, nil
}

// Assign makes userID a reviewer of the competition. Repeating it is a no-op.
func (s *ReviewService) Assign(ctx context.Context, competitionID uuid.UUID, userID uint) (*models.CompetitionReviewer, error) {
	if _, err := s.competitions.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, competitionNotFound(competitionID)
		}
		return nil, models.NewInternalError(err)
	}
	if _, err := s.users.GetActiveByID(ctx, userID); err != nil {
		return nil, err
	}
	assignment, err := s.reviews.Assign(ctx, userID, competitionID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	slog.InfoContext(ctx, "reviewer assigned",
		slog.String("competition_id", competitionID.String()),
		slog.Uint64("user_id", uint64(userID)),
	)
	return assignment, nil
}

func (s *ReviewService) assignment(ctx context.Context, reviewerID uint, competitionID uuid.UUID) (*models.CompetitionReviewer, error) {
	a, err := s.reviews.GetAssignment(ctx, reviewerID, competitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reviewNotFound(competitionID)
		}
		return nil, models.NewInternalError(err)
	}
	return a, nil
}

func (s *ReviewService) attachURLs(p *models.Project) {
	if s.storage == nil {
		return
	}
	for i := range p.Images {
		p.Images[i].URL = s.storage.PublicURL(p.Images[i].StorageKey)
	}
}
