// Package seed provides helpers to create reference and demo data for the
// application database. The demo helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"showcase/internal/models"
	"showcase/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var techChoices = []string{
	"Go", "TypeScript", "Python", "React", "Vue", "Svelte", "PostgreSQL",
	"Redis", "Docker", "Tailwind CSS", "Django", "Next.js", "Rust", "Kotlin",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db       *gorm.DB
	projects repository.ProjectRepository
	opts     Options
	rng      *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		db:       db,
		projects: repository.NewProjectRepository(db),
		opts:     opts,
		rng:      rand.New(rand.NewSource(seed)),
		nextID:   1000,
	}
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	person := gofakeit.Person()
	user := &models.User{
		Email:     strings.ToLower(fmt.Sprintf("%s.%s.%d@example.is", person.FirstName, person.LastName, gofakeit.Number(100, 99999))),
		FirstName: person.FirstName,
		LastName:  person.LastName,
		IsActive:  true,
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Email)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildProject constructs a project owned by owner without persisting it.
// The submission date falls within the last MaxDays days.
func (f *Factory) BuildProject(owner *models.User, status models.ProjectStatus, overrides ...func(*models.Project)) *models.Project {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	created := time.Now().UTC().Add(-time.Duration(f.rng.Intn(maxDays*24)) * time.Hour)

	name := gofakeit.AppName()
	domain := strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".is"
	project := &models.Project{
		OwnerID:         owner.ID,
		Title:           name,
		Tagline:         gofakeit.HipsterSentence(8),
		Description:     gofakeit.Paragraph(1, 3, 12, " "),
		WebsiteURL:      "https://" + domain,
		GithubURL:       "https://github.com/" + strings.ToLower(gofakeit.Username()) + "/" + strings.TrimSuffix(domain, ".is"),
		TechStack:       datatypes.JSONSlice[string](f.pickTech(3)),
		MonthlyVisitors: uint(gofakeit.Number(0, 50000)),
		Status:          status,
		CreatedAt:       created,
	}
	switch status {
	case models.ProjectStatusApproved:
		approved := created.Add(48 * time.Hour)
		project.ApprovedAt = &approved
	case models.ProjectStatusRejected:
		reason := gofakeit.Sentence(6)
		project.RejectionReason = &reason
	}
	for _, override := range overrides {
		override(project)
	}
	return project
}

// CreateProject persists a generated project with the given tags and, when
// competitionID is set, enters it into that competition.
func (f *Factory) CreateProject(owner *models.User, status models.ProjectStatus, tags []models.Tag, competitionID *uuid.UUID) (*models.Project, error) {
	project := f.BuildProject(owner, status)
	if f.opts.DryRun {
		project.ID = uuid.New()
		log.Printf("[dry-run] CreateProject: %s (%s)", project.Title, project.Status)
		return project, nil
	}

	tagIDs := make([]uuid.UUID, 0, len(tags))
	for _, t := range tags {
		tagIDs = append(tagIDs, t.ID)
	}
	if err := f.projects.Create(context.Background(), project, tagIDs, competitionID); err != nil {
		return nil, err
	}
	return project, nil
}

func (f *Factory) pickTech(n int) []string {
	perm := f.rng.Perm(len(techChoices))
	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, techChoices[i])
	}
	return out
}

func (f *Factory) pickTags(tags []models.Tag, n int) []models.Tag {
	if len(tags) == 0 {
		return nil
	}
	if n > len(tags) {
		n = len(tags)
	}
	perm := f.rng.Perm(len(tags))
	out := make([]models.Tag, 0, n)
	for _, i := range perm[:n] {
		out = append(out, tags[i])
	}
	return out
}
