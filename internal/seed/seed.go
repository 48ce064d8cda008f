package seed

import (
	"fmt"
	"log"

	"showcase/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumProjects int
	MaxDays     int
	ShouldClean bool
	DryRun      bool
	// RandomSeed makes generated data reproducible when non-zero.
	RandomSeed int64
}

// Result summarizes what a demo seed created.
type Result struct {
	Users    int
	Projects map[models.ProjectStatus]int
}

// Seeder fills a database with reference data and demo content.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder returns a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// ClearAll removes every demo and reference row. Users are kept.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		log.Println("[dry-run] ClearAll skipped")
		return nil
	}
	log.Println("Clearing existing showcase data...")
	tables := []any{
		&models.ProjectRanking{},
		&models.CompetitionReviewer{},
		&models.ProjectImage{},
	}
	for _, t := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return err
		}
	}
	for _, join := range []string{"competition_projects", "project_tags"} {
		if err := s.db.Exec("DELETE FROM " + join).Error; err != nil {
			return err
		}
	}
	for _, t := range []any{&models.Competition{}, &models.Project{}, &models.Tag{}, &models.TagCategory{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return err
		}
	}
	return nil
}

// Seed loads the catalog and then generates demo users and projects. Most
// projects are approved; the rest spread over the other review states.
func (s *Seeder) Seed() (*Result, error) {
	log.Printf("Seeding %d users and %d projects...", s.opts.NumUsers, s.opts.NumProjects)

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}
	if !s.opts.DryRun {
		if err := SeedCatalog(s.db); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}

	res := &Result{Projects: make(map[models.ProjectStatus]int)}
	if s.opts.NumUsers <= 0 {
		return res, nil
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	var tags []models.Tag
	var competitionID *uuid.UUID
	if !s.opts.DryRun {
		if err := s.db.Where("status = ?", models.TagStatusApproved).Find(&tags).Error; err != nil {
			return nil, err
		}
		var open models.Competition
		err := s.db.Where("status = ?", models.CompetitionStatusAccepting).
			Order("start_date DESC").Limit(1).Find(&open).Error
		if err != nil {
			return nil, err
		}
		if open.ID != uuid.Nil {
			competitionID = &open.ID
		}
	}

	for i := 0; i < s.opts.NumProjects; i++ {
		status := statusFor(i)
		owner := users[i%len(users)]
		if _, err := s.factory.CreateProject(owner, status, s.factory.pickTags(tags, 3), competitionID); err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
		res.Projects[status]++
	}

	log.Printf("Seeded %d users and %d projects", res.Users, s.opts.NumProjects)
	return res, nil
}

// statusFor spreads projects 7:1:1:1 over approved, pending, rejected and ice box.
func statusFor(i int) models.ProjectStatus {
	switch i % 10 {
	case 7:
		return models.ProjectStatusPending
	case 8:
		return models.ProjectStatusRejected
	case 9:
		return models.ProjectStatusIceBox
	default:
		return models.ProjectStatusApproved
	}
}
