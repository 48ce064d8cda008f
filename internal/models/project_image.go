package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageUploadStatus tracks the two-phase presigned upload of a project image.
type ImageUploadStatus string

const (
	// ImageUploadStatusPending means an upload URL was issued but not confirmed.
	ImageUploadStatusPending ImageUploadStatus = "pending"
	// ImageUploadStatusUploaded means the object was verified in storage.
	ImageUploadStatusUploaded ImageUploadStatus = "uploaded"
	// ImageUploadStatusFailed is reserved for an expiry sweep of abandoned uploads.
	ImageUploadStatusFailed ImageUploadStatus = "failed"
)

// ProjectImage is a screenshot or logo stored in object storage.
type ProjectImage struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"project_id"`
	StorageKey       string            `gorm:"size:500;not null" json:"storage_key"`
	OriginalFilename string            `gorm:"size:255" json:"original_filename"`
	ContentType      string            `gorm:"size:50" json:"content_type"`
	FileSize         int64             `json:"file_size"`
	Width            *int              `json:"width"`
	Height           *int              `json:"height"`
	IsMain           bool              `gorm:"not null;default:false" json:"is_main"`
	DisplayOrder     int               `gorm:"not null;default:0" json:"display_order"`
	UploadStatus     ImageUploadStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"upload_status"`
	CreatedAt        time.Time         `json:"created_at"`
	UploadedAt       *time.Time        `json:"uploaded_at"`
	URL              string            `gorm:"-" json:"url,omitempty"`
}

// BeforeCreate assigns the id.
func (i *ProjectImage) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.UploadStatus == "" {
		i.UploadStatus = ImageUploadStatusPending
	}
	return nil
}
