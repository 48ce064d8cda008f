package validation

import (
	"time"

	"github.com/google/uuid"
)

// CreateProjectRequest is the body of POST /my/projects.
type CreateProjectRequest struct {
	WebsiteURL      string      `json:"website_url" validate:"required,max=2083,weburl"`
	Title           string      `json:"title" validate:"max=100"`
	Tagline         string      `json:"tagline" validate:"max=200"`
	Description     string      `json:"description"`
	LongDescription string      `json:"long_description" validate:"max=5000"`
	GithubURL       string      `json:"github_url" validate:"omitempty,max=2083,url"`
	DemoURL         string      `json:"demo_url" validate:"omitempty,max=2083,url"`
	TechStack       []string    `json:"tech_stack" validate:"max=50,dive,max=100"`
	TagIDs          []uuid.UUID `json:"tag_ids" validate:"max=50,unique"`
	CompetitionID   *uuid.UUID  `json:"competition_id"`
}

// UpdateProjectRequest is the body of PUT /my/projects/:id. Absent optional
// fields keep their stored values; an absent tag_ids clears the tags.
type UpdateProjectRequest struct {
	WebsiteURL      string      `json:"website_url" validate:"required,max=2083,weburl"`
	Title           *string     `json:"title" validate:"omitempty,max=100"`
	Tagline         *string     `json:"tagline" validate:"omitempty,max=200"`
	Description     *string     `json:"description"`
	LongDescription *string     `json:"long_description" validate:"omitempty,max=5000"`
	GithubURL       *string     `json:"github_url" validate:"omitempty,max=2083,url"`
	DemoURL         *string     `json:"demo_url" validate:"omitempty,max=2083,url"`
	TechStack       []string    `json:"tech_stack" validate:"omitempty,max=50,dive,max=100"`
	TagIDs          []uuid.UUID `json:"tag_ids" validate:"omitempty,max=50,unique"`
}

// RejectProjectRequest carries the reason shown to the owner.
type RejectProjectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// FeatureProjectRequest toggles the featured flag.
type FeatureProjectRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

// UploadURLRequest asks for a presigned upload.
type UploadURLRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=100"`
	FileSize    int64  `json:"file_size" validate:"gt=0"`
}

// CompleteUploadRequest optionally reports the image dimensions.
type CompleteUploadRequest struct {
	Width  *int `json:"width" validate:"omitempty,gt=0"`
	Height *int `json:"height" validate:"omitempty,gt=0"`
}

// SetMainImageRequest names the image to promote.
type SetMainImageRequest struct {
	ImageID uuid.UUID `json:"image_id" validate:"required"`
}

// SuggestTagRequest is the body of POST /tags/suggest.
type SuggestTagRequest struct {
	Name        string    `json:"name" validate:"required,max=50"`
	Description string    `json:"description" validate:"max=1000"`
	Color       string    `json:"color" validate:"omitempty,hexcolor,max=7"`
	CategoryID  uuid.UUID `json:"category_id" validate:"required"`
}

// CompetitionRequest creates or updates a competition.
type CompetitionRequest struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Slug        string     `json:"slug" validate:"omitempty,slug"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     time.Time  `json:"end_date" validate:"required,gtefield=StartDate"`
	PrizeAmount *int64     `json:"prize_amount" validate:"omitempty,min=0"`
	Quote       string     `json:"quote"`
	Image       string     `json:"image" validate:"omitempty,max=500"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending accepting_applications closed"`
	WinnerID    *uuid.UUID `json:"winner_id"`
}

// CompetitionProjectRequest attaches a project to a competition.
type CompetitionProjectRequest struct {
	ProjectID uuid.UUID `json:"project_id" validate:"required"`
}

// AssignReviewerRequest makes a user a reviewer of a competition.
type AssignReviewerRequest struct {
	UserID uint `json:"user_id" validate:"required,gt=0"`
}

// RankingsRequest replaces a reviewer's ordering, best first.
type RankingsRequest struct {
	ProjectIDs []uuid.UUID `json:"project_ids" validate:"max=500,unique"`
}

// ReviewStatusRequest sets the reviewer's progress.
type ReviewStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in_progress completed"`
}

// RegisterUserRequest mirrors the identity provider's claims for first login.
type RegisterUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Kennitala string `json:"kennitala" validate:"omitempty,kennitala"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}
