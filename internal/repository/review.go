package repository

import (
	"context"

	"showcase/internal/models"
	"showcase/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository defines persistence operations for reviewer assignments and
// rankings.
type ReviewRepository interface {
	GetAssignment(ctx context.Context, reviewerID uint, competitionID uuid.UUID) (*models.CompetitionReviewer, error)
	ListAssignments(ctx context.Context, reviewerID uint) ([]models.CompetitionReviewer, error)
	Assign(ctx context.Context, reviewerID uint, competitionID uuid.UUID) (*models.CompetitionReviewer, error)
	UpdateStatus(ctx context.Context, assignment *models.CompetitionReviewer, status models.ReviewStatus) error
	Rankings(ctx context.Context, reviewerID uint, competitionID uuid.UUID) ([]models.ProjectRanking, error)
	ReplaceRankings(ctx context.Context, reviewerID uint, competitionID uuid.UUID, projectIDs []uuid.UUID) ([]models.ProjectRanking, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) GetAssignment(ctx context.Context, reviewerID uint, competitionID uuid.UUID) (*models.CompetitionReviewer, error) {
	var a models.CompetitionReviewer
	err := r.db.WithContext(ctx).
		Preload("Competition").
		Where("user_id = ? AND competition_id = ?", reviewerID, competitionID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *reviewRepository) ListAssignments(ctx context.Context, reviewerID uint) ([]models.CompetitionReviewer, error) {
	var assignments []models.CompetitionReviewer
	err := r.db.WithContext(ctx).
		Preload("Competition").
		Joins("JOIN competitions ON competitions.id = competition_reviewers.competition_id").
		Where("competition_reviewers.user_id = ?", reviewerID).
		Order("competitions.start_date DESC").
		Find(&assignments).Error
	return assignments, err
}

// Assign is idempotent; an existing assignment keeps its status.
func (r *reviewRepository) Assign(ctx context.Context, reviewerID uint, competitionID uuid.UUID) (*models.CompetitionReviewer, error) {
	a := models.CompetitionReviewer{
		UserID:        reviewerID,
		CompetitionID: competitionID,
		Status:        models.ReviewStatusInProgress,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "competition_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&a).Error
	if err != nil {
		return nil, err
	}
	return r.GetAssignment(ctx, reviewerID, competitionID)
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, assignment *models.CompetitionReviewer, status models.ReviewStatus) error {
	if err := r.db.WithContext(ctx).Model(&models.CompetitionReviewer{}).
		Where("id = ?", assignment.ID).
		Update("status", status).Error; err != nil {
		return err
	}
	assignment.Status = status
	return nil
}

func (r *reviewRepository) Rankings(ctx context.Context, reviewerID uint, competitionID uuid.UUID) ([]models.ProjectRanking, error) {
	var rankings []models.ProjectRanking
	err := r.db.WithContext(ctx).
		Where("reviewer_id = ? AND competition_id = ?", reviewerID, competitionID).
		Order("position ASC").
		Find(&rankings).Error
	return rankings, err
}

// ReplaceRankings deletes the reviewer's rankings for the competition and
// inserts projectIDs at positions 1..N, atomically.
func (r *reviewRepository) ReplaceRankings(ctx context.Context, reviewerID uint, competitionID uuid.UUID, projectIDs []uuid.UUID) ([]models.ProjectRanking, error) {
	defer observability.TrackQuery("replace_rankings", "project_rankings")()
	rankings := make([]models.ProjectRanking, 0, len(projectIDs))
	for i, id := range projectIDs {
		rankings = append(rankings, models.ProjectRanking{
			ReviewerID:    reviewerID,
			CompetitionID: competitionID,
			ProjectID:     id,
			Position:      i + 1,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reviewer_id = ? AND competition_id = ?", reviewerID, competitionID).
			Delete(&models.ProjectRanking{}).Error; err != nil {
			return err
		}
		if len(rankings) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&rankings).Error
	})
	if err != nil {
		return nil, err
	}
	return rankings, nil
}
