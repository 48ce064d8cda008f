package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectStatus is the review state of a submitted project.
type ProjectStatus string

const (
	// ProjectStatusPending is awaiting staff review.
	ProjectStatusPending ProjectStatus = "pending"
	// ProjectStatusApproved is publicly visible.
	ProjectStatusApproved ProjectStatus = "approved"
	// ProjectStatusRejected was declined; the owner may edit or resubmit.
	ProjectStatusRejected ProjectStatus = "rejected"
	// ProjectStatusIceBox is parked by staff and hidden from reviewers.
	ProjectStatusIceBox ProjectStatus = "ice_box"
)

// ExcludedReviewStatuses are hidden from review listings and cannot be ranked.
var ExcludedReviewStatuses = []ProjectStatus{ProjectStatusRejected, ProjectStatusIceBox}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusApproved, ProjectStatusRejected, ProjectStatusIceBox:
		return true
	}
	return false
}

// Field limits shared by validation and the schema.
const (
	ProjectTitleMaxLen           = 100
	ProjectTaglineMaxLen         = 200
	ProjectLongDescriptionMaxLen = 5000
	URLMaxLen                    = 2083
)

// Project is a user-submitted web or app project.
type Project struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         uint                        `gorm:"not null;index" json:"owner_id"`
	Owner           *UserProfile                `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	Title           string                      `gorm:"size:100;not null" json:"title"`
	Tagline         string                      `gorm:"size:200" json:"tagline"`
	Description     string                      `gorm:"type:text" json:"description"`
	LongDescription string                      `gorm:"size:5000" json:"long_description"`
	WebsiteURL      string                      `gorm:"size:2083;not null" json:"website_url"`
	GithubURL       string                      `gorm:"size:2083" json:"github_url"`
	DemoURL         string                      `gorm:"size:2083" json:"demo_url"`
	TechStack       datatypes.JSONSlice[string] `json:"tech_stack"`
	MonthlyVisitors uint                        `gorm:"not null;default:0" json:"monthly_visitors"`
	Status          ProjectStatus               `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason *string                     `gorm:"type:text" json:"rejection_reason"`
	IsFeatured      bool                        `gorm:"not null;default:false;index" json:"is_featured"`
	SubmissionMonth string                      `gorm:"size:7;not null;index" json:"submission_month"`
	ApprovedAt      *time.Time                  `json:"approved_at"`
	ApprovedByID    *uint                       `json:"approved_by_id"`
	ApprovedBy      *User                       `gorm:"foreignKey:ApprovedByID;constraint:OnDelete:SET NULL" json:"-"`
	Tags            []Tag                       `gorm:"many2many:project_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Images          []ProjectImage              `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
	WonCompetitions []CompetitionWin            `gorm:"foreignKey:WinnerID;-:migration" json:"won_competitions"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// BeforeCreate assigns the id and stamps the submission month.
func (p *Project) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectStatusPending
	}
	if p.SubmissionMonth == "" {
		created := p.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		p.SubmissionMonth = created.Format("2006-01")
	}
	if p.TechStack == nil {
		p.TechStack = datatypes.JSONSlice[string]{}
	}
	return nil
}

// BeforeSave keeps the rejection reason tied to the rejected status.
func (p *Project) BeforeSave(_ *gorm.DB) error {
	p.NormalizeRejection()
	return nil
}

// NormalizeRejection clears the rejection reason unless the project is rejected.
func (p *Project) NormalizeRejection() {
	if p.Status != ProjectStatusRejected {
		p.RejectionReason = nil
	}
}

// ReturnToPending moves a rejected project back into the review queue.
// It reports whether the status changed.
func (p *Project) ReturnToPending() bool {
	if p.Status != ProjectStatusRejected {
		return false
	}
	p.Status = ProjectStatusPending
	p.RejectionReason = nil
	return true
}

// MainImage returns the uploaded main image among the loaded images, if any.
func (p *Project) MainImage() *ProjectImage {
	for i := range p.Images {
		img := &p.Images[i]
		if img.IsMain && img.UploadStatus == ImageUploadStatusUploaded {
			return img
		}
	}
	return nil
}
