package models

import (
	"time"

	"showcase/internal/slug"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompetitionStatus is the lifecycle state of a competition.
type CompetitionStatus string

const (
	CompetitionStatusPending   CompetitionStatus = "pending"
	CompetitionStatusAccepting CompetitionStatus = "accepting_applications"
	CompetitionStatusClosed    CompetitionStatus = "closed"
)

// Valid reports whether s is a known competition status.
func (s CompetitionStatus) Valid() bool {
	switch s {
	case CompetitionStatusPending, CompetitionStatusAccepting, CompetitionStatusClosed:
		return true
	}
	return false
}

// DefaultPrizeAmount is applied when a competition is created without a prize.
const DefaultPrizeAmount int64 = 50000

// Competition is a time-boxed contest that approved projects enter.
type Competition struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string            `gorm:"size:255;not null" json:"name"`
	Slug        string            `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	StartDate   time.Time         `gorm:"not null;index" json:"start_date"`
	EndDate     time.Time         `gorm:"not null" json:"end_date"`
	PrizeAmount *int64            `json:"prize_amount"`
	Quote       string            `gorm:"type:text" json:"quote"`
	Image       string            `gorm:"size:500" json:"image"`
	Projects    []Project         `gorm:"many2many:competition_projects;constraint:OnDelete:CASCADE" json:"projects,omitempty"`
	WinnerID    *uuid.UUID        `gorm:"type:uuid" json:"winner_id"`
	Winner      *Project          `gorm:"foreignKey:WinnerID;constraint:OnDelete:SET NULL" json:"winner,omitempty"`
	Status      CompetitionStatus `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CompetitionWin is a competition as listed on the project that won it.
type CompetitionWin struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	WinnerID *uuid.UUID `gorm:"type:uuid" json:"-"`
}

func (CompetitionWin) TableName() string {
	return "competitions"
}

// BeforeCreate assigns the id and the default prize.
func (c *Competition) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.PrizeAmount == nil {
		prize := DefaultPrizeAmount
		c.PrizeAmount = &prize
	}
	return nil
}

// BeforeSave derives the slug once and closes competitions that have a winner.
func (c *Competition) BeforeSave(_ *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = slug.FromName(c.Name)
	}
	c.NormalizeStatus()
	return nil
}

// NormalizeStatus forces the closed status whenever a winner is set.
func (c *Competition) NormalizeStatus() {
	if c.WinnerID != nil && *c.WinnerID != uuid.Nil {
		c.Status = CompetitionStatusClosed
	}
	if c.Status == "" {
		c.Status = CompetitionStatusPending
	}
}

// IsAccepting reports whether projects may currently be attached.
func (c *Competition) IsAccepting() bool {
	return c.Status == CompetitionStatusAccepting
}
