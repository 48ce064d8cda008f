package repository

import (
	"context"
	"errors"
	"time"

	"showcase/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageRepository defines storage operations for project image metadata.
type ImageRepository interface {
	Create(ctx context.Context, image *models.ProjectImage) error
	GetForProject(ctx context.Context, projectID, imageID uuid.UUID) (*models.ProjectImage, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectImage, error)
	CountUploaded(ctx context.Context, projectID uuid.UUID) (int64, error)
	MarkUploaded(ctx context.Context, image *models.ProjectImage, width, height *int) error
	SetMain(ctx context.Context, image *models.ProjectImage) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAndPromote(ctx context.Context, image *models.ProjectImage) error
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a repository implementation for image metadata.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.ProjectImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepository) GetForProject(ctx context.Context, projectID, imageID uuid.UUID) (*models.ProjectImage, error) {
	var image models.ProjectImage
	if err := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", imageID, projectID).
		First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ProjectImage, error) {
	var images []models.ProjectImage
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("display_order ASC, created_at ASC").
		Find(&images).Error
	return images, err
}

func (r *imageRepository) CountUploaded(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProjectImage{}).
		Where("project_id = ? AND upload_status = ?", projectID, models.ImageUploadStatusUploaded).
		Count(&count).Error
	return count, err
}

// MarkUploaded confirms a pending image and promotes it to main when the
// project has no uploaded main image yet.
func (r *imageRepository) MarkUploaded(ctx context.Context, image *models.ProjectImage, width, height *int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mains int64
		if err := tx.Model(&models.ProjectImage{}).
			Where("project_id = ? AND is_main = ? AND upload_status = ?", image.ProjectID, true, models.ImageUploadStatusUploaded).
			Count(&mains).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"upload_status": models.ImageUploadStatusUploaded,
			"uploaded_at":   now,
			"is_main":       mains == 0,
		}
		if width != nil {
			updates["width"] = *width
		}
		if height != nil {
			updates["height"] = *height
		}
		res := tx.Model(&models.ProjectImage{}).
			Where("id = ? AND upload_status = ?", image.ID, models.ImageUploadStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		image.UploadStatus = models.ImageUploadStatusUploaded
		image.UploadedAt = &now
		image.IsMain = mains == 0
		if width != nil {
			image.Width = width
		}
		if height != nil {
			image.Height = height
		}
		return nil
	})
}

// SetMain clears the flag on every image of the project, then sets it on image.
func (r *imageRepository) SetMain(ctx context.Context, image *models.ProjectImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProjectImage{}).
			Where("project_id = ? AND is_main = ?", image.ProjectID, true).
			Update("is_main", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProjectImage{}).
			Where("id = ?", image.ID).
			Update("is_main", true).Error; err != nil {
			return err
		}
		image.IsMain = true
		return nil
	})
}

func (r *imageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ProjectImage{}, "id = ?", id).Error
}

// DeleteAndPromote removes image and, when it was the main image, promotes the
// next uploaded image by (display_order, created_at).
func (r *imageRepository) DeleteAndPromote(ctx context.Context, image *models.ProjectImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ProjectImage{}, "id = ?", image.ID).Error; err != nil {
			return err
		}
		if !image.IsMain {
			return nil
		}

		var next models.ProjectImage
		err := tx.Where("project_id = ? AND upload_status = ?", image.ProjectID, models.ImageUploadStatusUploaded).
			Order("display_order ASC, created_at ASC").
			First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&models.ProjectImage{}).Where("id = ?", next.ID).Update("is_main", true).Error
	})
}
