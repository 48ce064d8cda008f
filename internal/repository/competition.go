package repository

import (
	"context"
	"errors"

	"showcase/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompetitionRepository defines persistence operations for competitions and
// their project membership.
type CompetitionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Competition, error)
	GetBySlug(ctx context.Context, slug string) (*models.Competition, error)
	List(ctx context.Context) ([]models.Competition, error)
	ListWithApprovedProjects(ctx context.Context) ([]models.Competition, error)
	LatestAccepting(ctx context.Context) (*models.Competition, error)
	FirstAccepting(ctx context.Context) (*models.Competition, error)
	MostRecentClosed(ctx context.Context) (*models.Competition, error)
	Create(ctx context.Context, competition *models.Competition) error
	Save(ctx context.Context, competition *models.Competition) error
	AddProject(ctx context.Context, competitionID, projectID uuid.UUID) error
	HasProject(ctx context.Context, competitionID, projectID uuid.UUID) (bool, error)
	ReviewableProjects(ctx context.Context, competitionID uuid.UUID) ([]models.Project, error)
	CountReviewableProjects(ctx context.Context, competitionID uuid.UUID) (int64, error)
}

type competitionRepository struct {
	db *gorm.DB
}

// NewCompetitionRepository creates a new competition repository.
func NewCompetitionRepository(db *gorm.DB) CompetitionRepository {
	return &competitionRepository{db: db}
}

func (r *competitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	var c models.Competition
	if err := r.db.WithContext(ctx).Preload("Winner").Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *competitionRepository) GetBySlug(ctx context.Context, slug string) (*models.Competition, error) {
	var c models.Competition
	if err := readDB(r.db).WithContext(ctx).Preload("Winner").Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *competitionRepository) List(ctx context.Context) ([]models.Competition, error) {
	var competitions []models.Competition
	err := readDB(r.db).WithContext(ctx).
		Preload("Winner").
		Order("start_date DESC").
		Find(&competitions).Error
	return competitions, err
}

func (r *competitionRepository) ListWithApprovedProjects(ctx context.Context) ([]models.Competition, error) {
	var competitions []models.Competition
	err := readDB(r.db).WithContext(ctx).
		Preload("Winner").
		Preload("Projects", "status = ?", models.ProjectStatusApproved).
		Preload("Projects.Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("upload_status = ?", models.ImageUploadStatusUploaded).
				Order("display_order ASC, created_at ASC")
		}).
		Order("start_date DESC").
		Find(&competitions).Error
	return competitions, err
}

// LatestAccepting returns the accepting competition that started most recently.
func (r *competitionRepository) LatestAccepting(ctx context.Context) (*models.Competition, error) {
	return r.firstWhere(ctx, "start_date DESC", "status = ?", models.CompetitionStatusAccepting)
}

// FirstAccepting returns the earliest created accepting competition.
func (r *competitionRepository) FirstAccepting(ctx context.Context) (*models.Competition, error) {
	return r.firstWhere(ctx, "created_at ASC", "status = ?", models.CompetitionStatusAccepting)
}

// MostRecentClosed returns the closed competition with the latest end date.
func (r *competitionRepository) MostRecentClosed(ctx context.Context) (*models.Competition, error) {
	return r.firstWhere(ctx, "end_date DESC", "status = ?", models.CompetitionStatusClosed)
}

// firstWhere returns nil without error when nothing matches.
func (r *competitionRepository) firstWhere(ctx context.Context, order string, query string, args ...any) (*models.Competition, error) {
	var c models.Competition
	err := r.db.WithContext(ctx).Preload("Winner").Where(query, args...).Order(order).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *competitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(competition).Error
}

func (r *competitionRepository) Save(ctx context.Context, competition *models.Competition) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(competition).Error
}

// AddProject is idempotent.
func (r *competitionRepository) AddProject(ctx context.Context, competitionID, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO competition_projects (competition_id, project_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		competitionID, projectID,
	).Error
}

func (r *competitionRepository) HasProject(ctx context.Context, competitionID, projectID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("competition_projects").
		Where("competition_id = ? AND project_id = ?", competitionID, projectID).
		Count(&count).Error
	return count > 0, err
}

func (r *competitionRepository) reviewable(ctx context.Context, competitionID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Project{}).
		Where("projects.status NOT IN ?", models.ExcludedReviewStatuses).
		Where("projects.id IN (SELECT project_id FROM competition_projects WHERE competition_id = ?)", competitionID)
}

// ReviewableProjects lists the competition's projects that are not rejected or
// in the ice box.
func (r *competitionRepository) ReviewableProjects(ctx context.Context, competitionID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := r.reviewable(ctx, competitionID).
		Preload("Owner").
		Preload("Tags").
		Preload("WonCompetitions").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("upload_status = ?", models.ImageUploadStatusUploaded).
				Order("display_order ASC, created_at ASC")
		}).
		Order("projects.created_at ASC").
		Find(&projects).Error
	return projects, err
}

func (r *competitionRepository) CountReviewableProjects(ctx context.Context, competitionID uuid.UUID) (int64, error) {
	var count int64
	err := r.reviewable(ctx, competitionID).Count(&count).Error
	return count, err
}
