package repository

import (
	"context"
	"strings"
	"time"

	"showcase/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagGroup is one active category with its visible tags.
type TagGroup struct {
	Category models.TagCategory `json:"category"`
	Tags     []models.Tag       `json:"tags"`
}

// TagRepository defines persistence operations for tags and categories.
type TagRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	FindUsable(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error)
	ListVisible(ctx context.Context) ([]models.Tag, error)
	ListPending(ctx context.Context) ([]models.Tag, error)
	ListCategories(ctx context.Context) ([]models.TagCategory, error)
	ListGrouped(ctx context.Context, withProjects bool) ([]TagGroup, error)
	GetActiveCategory(ctx context.Context, id uuid.UUID) (*models.TagCategory, error)
	NameOrSlugTaken(ctx context.Context, name, slug string) (bool, error)
	Create(ctx context.Context, tag *models.Tag) error
	CreateCategory(ctx context.Context, category *models.TagCategory) error
	Review(ctx context.Context, tag *models.Tag, status models.TagStatus, reviewerID uint) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindUsable returns the tags among ids that are not rejected.
func (r *tagRepository) FindUsable(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND status <> ?", ids, models.TagStatusRejected).
		Find(&tags).Error
	return tags, err
}

func (r *tagRepository) ListVisible(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := readDB(r.db).WithContext(ctx).
		Where("status <> ?", models.TagStatusRejected).
		Order("name ASC").
		Find(&tags).Error
	return tags, err
}

func (r *tagRepository) ListPending(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("status = ?", models.TagStatusPending).
		Order("created_at ASC").
		Find(&tags).Error
	return tags, err
}

func (r *tagRepository) ListCategories(ctx context.Context) ([]models.TagCategory, error) {
	var categories []models.TagCategory
	err := readDB(r.db).WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&categories).Error
	return categories, err
}

// ListGrouped returns active categories with their non-rejected tags. With
// withProjects only tags on at least one approved project are kept. Empty
// categories are skipped.
func (r *tagRepository) ListGrouped(ctx context.Context, withProjects bool) ([]TagGroup, error) {
	categories, err := r.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	q := readDB(r.db).WithContext(ctx).
		Where("status <> ? AND category_id IS NOT NULL", models.TagStatusRejected)
	if withProjects {
		q = q.Where(`id IN (
			SELECT pt.tag_id FROM project_tags pt
			JOIN projects p ON p.id = pt.project_id
			WHERE p.status = ?)`, models.ProjectStatusApproved)
	}
	var tags []models.Tag
	if err := q.Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}

	byCategory := make(map[uuid.UUID][]models.Tag, len(categories))
	for _, t := range tags {
		byCategory[*t.CategoryID] = append(byCategory[*t.CategoryID], t)
	}

	groups := make([]TagGroup, 0, len(categories))
	for _, c := range categories {
		if len(byCategory[c.ID]) == 0 {
			continue
		}
		groups = append(groups, TagGroup{Category: c, Tags: byCategory[c.ID]})
	}
	return groups, nil
}

func (r *tagRepository) GetActiveCategory(ctx context.Context, id uuid.UUID) (*models.TagCategory, error) {
	var category models.TagCategory
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// NameOrSlugTaken checks the name case-insensitively and the slug exactly.
func (r *tagRepository) NameOrSlugTaken(ctx context.Context, name, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tag{}).
		Where("LOWER(name) = ? OR slug = ?", strings.ToLower(strings.TrimSpace(name)), slug).
		Count(&count).Error
	return count > 0, err
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Omit("Category").Create(tag).Error
}

func (r *tagRepository) CreateCategory(ctx context.Context, category *models.TagCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// Review stamps the moderation outcome. Rejection detaches the tag from every
// project in the same transaction.
func (r *tagRepository) Review(ctx context.Context, tag *models.Tag, status models.TagStatus, reviewerID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if status == models.TagStatusRejected {
			if err := tx.Exec("DELETE FROM project_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		if err := tx.Model(&models.Tag{}).Where("id = ?", tag.ID).Updates(map[string]any{
			"status":         status,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    now,
		}).Error; err != nil {
			return err
		}
		tag.Status = status
		tag.ReviewedByID = &reviewerID
		tag.ReviewedAt = &now
		return nil
	})
}
