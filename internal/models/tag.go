package models

import (
	"time"

	"showcase/internal/slug"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagStatus is the moderation state of a tag.
type TagStatus string

const (
	TagStatusPending  TagStatus = "pending"
	TagStatusApproved TagStatus = "approved"
	TagStatusRejected TagStatus = "rejected"
)

// TagCategory groups tags for browsing.
type TagCategory struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Slug         string    `gorm:"size:50;not null;uniqueIndex" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns the id and derives the slug.
func (c *TagCategory) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = slug.FromName(c.Name)
	}
	return nil
}

// Tag labels projects by technology or theme.
type Tag struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string       `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Slug         string       `gorm:"size:50;not null;uniqueIndex" json:"slug"`
	Description  string       `gorm:"type:text" json:"description"`
	Color        string       `gorm:"size:7" json:"color"`
	CategoryID   *uuid.UUID   `gorm:"type:uuid;index" json:"category_id"`
	Category     *TagCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Status       TagStatus    `gorm:"type:varchar(20);not null;default:'approved';index" json:"status"`
	CreatedByID  *uint        `json:"created_by_id,omitempty"`
	ReviewedByID *uint        `json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// BeforeCreate assigns the id and derives the slug.
func (t *Tag) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Slug == "" {
		t.Slug = slug.FromName(t.Name)
	}
	if t.Status == "" {
		t.Status = TagStatusApproved
	}
	return nil
}
