package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is a reviewer's progress on a competition.
type ReviewStatus string

const (
	ReviewStatusInProgress ReviewStatus = "in_progress"
	ReviewStatusCompleted  ReviewStatus = "completed"
)

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	return s == ReviewStatusInProgress || s == ReviewStatusCompleted
}

// CompetitionReviewer assigns a user to review one competition.
type CompetitionReviewer struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"not null;uniqueIndex:idx_reviewer_competition" json:"user_id"`
	User          *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CompetitionID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_reviewer_competition;index" json:"competition_id"`
	Competition   *Competition `gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE" json:"competition,omitempty"`
	Status        ReviewStatus `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	AssignedAt    time.Time    `gorm:"autoCreateTime" json:"assigned_at"`
}

// ProjectRanking is one position in a reviewer's ordering of a competition.
type ProjectRanking struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ReviewerID    uint         `gorm:"not null;uniqueIndex:idx_ranking_project;uniqueIndex:idx_ranking_position" json:"reviewer_id"`
	Reviewer      *User        `gorm:"foreignKey:ReviewerID;constraint:OnDelete:CASCADE" json:"-"`
	CompetitionID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_ranking_project;uniqueIndex:idx_ranking_position" json:"competition_id"`
	Competition   *Competition `gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE" json:"-"`
	ProjectID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_ranking_project;index" json:"project_id"`
	Project       *Project     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Position      int          `gorm:"not null;uniqueIndex:idx_ranking_position" json:"position"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
