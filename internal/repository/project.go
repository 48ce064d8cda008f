package repository

import (
	"context"
	"fmt"
	"strings"

	"showcase/internal/models"
	"showcase/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sortable project columns. Anything else falls back to created_at.
var projectSortColumns = map[string]string{
	"created_at":       "created_at",
	"title":            "title",
	"monthly_visitors": "monthly_visitors",
	"updated_at":       "updated_at",
}

// ProjectFilter narrows the public listing of approved projects.
type ProjectFilter struct {
	TagSlugs  []string
	TechStack []string
	Search    string
	SortBy    string
	SortDir   string
	Page      int
	PerPage   int
}

// ProjectPage is one page of a project listing.
type ProjectPage struct {
	Projects []models.Project `json:"projects"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PerPage  int              `json:"per_page"`
	Pages    int              `json:"pages"`
}

// Viewer identifies who is looking at a project. The zero value is anonymous.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetVisible(ctx context.Context, id uuid.UUID, viewer Viewer) (*models.Project, error)
	GetOwned(ctx context.Context, id uuid.UUID, ownerID uint) (*models.Project, error)
	GetForReviewer(ctx context.Context, id uuid.UUID, reviewerID uint) (*models.Project, error)
	ListApproved(ctx context.Context, filter ProjectFilter) (*ProjectPage, error)
	ListFeatured(ctx context.Context) ([]models.Project, error)
	ListTrending(ctx context.Context) ([]models.Project, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Project, error)
	CountPending(ctx context.Context) (int64, error)
	Create(ctx context.Context, project *models.Project, tagIDs []uuid.UUID, competitionID *uuid.UUID) error
	Update(ctx context.Context, project *models.Project, tagIDs []uuid.UUID) error
	Save(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Owner").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Tags.Category").
		Preload("WonCompetitions", func(db *gorm.DB) *gorm.DB { return db.Order("competitions.end_date DESC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("upload_status = ?", models.ImageUploadStatusUploaded).
				Order("display_order ASC, created_at ASC")
		})
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.withDetails(r.db.WithContext(ctx)).Where("projects.id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// GetVisible returns an approved project to anyone, and any other project only
// to its owner or an admin. Everything else is reported as not found.
func (r *projectRepository) GetVisible(ctx context.Context, id uuid.UUID, viewer Viewer) (*models.Project, error) {
	q := r.withDetails(readDB(r.db).WithContext(ctx)).Where("projects.id = ?", id)
	if !viewer.IsAdmin {
		if viewer.UserID == 0 {
			q = q.Where("projects.status = ?", models.ProjectStatusApproved)
		} else {
			q = q.Where("(projects.status = ? OR projects.owner_id = ?)", models.ProjectStatusApproved, viewer.UserID)
		}
	}
	var project models.Project
	if err := q.First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) GetOwned(ctx context.Context, id uuid.UUID, ownerID uint) (*models.Project, error) {
	var project models.Project
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("projects.id = ? AND projects.owner_id = ?", id, ownerID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetForReviewer returns a non-excluded project that belongs to a competition
// the reviewer is assigned to.
func (r *projectRepository) GetForReviewer(ctx context.Context, id uuid.UUID, reviewerID uint) (*models.Project, error) {
	var project models.Project
	err := r.withDetails(readDB(r.db).WithContext(ctx)).
		Where("projects.id = ?", id).
		Where("projects.status NOT IN ?", models.ExcludedReviewStatuses).
		Where(`EXISTS (
			SELECT 1 FROM competition_projects cp
			JOIN competition_reviewers cr ON cr.competition_id = cp.competition_id
			WHERE cp.project_id = projects.id AND cr.user_id = ?)`, reviewerID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) ListApproved(ctx context.Context, filter ProjectFilter) (*ProjectPage, error) {
	defer observability.TrackQuery("list_approved", "projects")()
	page, perPage := NormalizePage(filter.Page, filter.PerPage)

	q := readDB(r.db).WithContext(ctx).Model(&models.Project{}).
		Where("projects.status = ?", models.ProjectStatusApproved)
	q = applyProjectFilters(q, filter)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	err := r.withDetails(q.Session(&gorm.Session{})).
		Order(projectOrder(filter.SortBy, filter.SortDir)).
		Order("projects.id ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return &ProjectPage{
		Projects: projects,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		Pages:    PageCount(total, perPage),
	}, nil
}

func applyProjectFilters(q *gorm.DB, filter ProjectFilter) *gorm.DB {
	if slugs := nonBlank(filter.TagSlugs); len(slugs) > 0 {
		q = q.Where(`projects.id IN (
			SELECT pt.project_id FROM project_tags pt
			JOIN tags t ON t.id = pt.tag_id
			WHERE t.slug IN ?)`, slugs)
	}
	// Each term must appear somewhere in the stored list.
	for _, term := range nonBlank(filter.TechStack) {
		q = q.Where(`LOWER(CAST(projects.tech_stack AS TEXT)) LIKE ? ESCAPE '\'`, containsPattern(term))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		q = q.Where(`(LOWER(projects.title) LIKE ? ESCAPE '\' OR LOWER(projects.description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return q
}

func projectOrder(sortBy, sortDir string) string {
	column, ok := projectSortColumns[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		column = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(sortDir), "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf("projects.%s %s", column, dir)
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (r *projectRepository) ListFeatured(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.withDetails(readDB(r.db).WithContext(ctx)).
		Where("status = ? AND is_featured = ?", models.ProjectStatusApproved, true).
		Order("approved_at DESC").
		Order("created_at DESC").
		Limit(HighlightLimit).
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) ListTrending(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.withDetails(readDB(r.db).WithContext(ctx)).
		Where("status = ?", models.ProjectStatusApproved).
		Order("monthly_visitors DESC").
		Order("created_at DESC").
		Limit(HighlightLimit).
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, created_at ASC")
		}).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Project{}).
		Where("status = ?", models.ProjectStatusPending).
		Count(&count).Error
	return count, err
}

// Create writes the project, its tags and its competition membership in one
// transaction.
func (r *projectRepository) Create(ctx context.Context, project *models.Project, tagIDs []uuid.UUID, competitionID *uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		if err := insertProjectTags(tx, project.ID, tagIDs); err != nil {
			return err
		}
		if competitionID != nil {
			if err := tx.Exec(
				"INSERT INTO competition_projects (competition_id, project_id) VALUES (?, ?)",
				*competitionID, project.ID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Update saves the scalar fields and replaces the tag set. A nil or empty
// tagIDs clears every tag.
func (r *projectRepository) Update(ctx context.Context, project *models.Project, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(project).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM project_tags WHERE project_id = ?", project.ID).Error; err != nil {
			return err
		}
		return insertProjectTags(tx, project.ID, tagIDs)
	})
}

func (r *projectRepository) Save(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

// Delete removes the project with every row that references it. Join tables
// are cleared explicitly so the result does not depend on FK enforcement.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cleanup := []string{
			"DELETE FROM project_tags WHERE project_id = ?",
			"DELETE FROM competition_projects WHERE project_id = ?",
			"DELETE FROM project_rankings WHERE project_id = ?",
			"DELETE FROM project_images WHERE project_id = ?",
			"UPDATE competitions SET winner_id = NULL WHERE winner_id = ?",
		}
		for _, stmt := range cleanup {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func insertProjectTags(tx *gorm.DB, projectID uuid.UUID, tagIDs []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(tagIDs))
	for _, tagID := range tagIDs {
		if _, dup := seen[tagID]; dup {
			continue
		}
		seen[tagID] = struct{}{}
		if err := tx.Exec("INSERT INTO project_tags (project_id, tag_id) VALUES (?, ?)", projectID, tagID).Error; err != nil {
			return err
		}
	}
	return nil
}
