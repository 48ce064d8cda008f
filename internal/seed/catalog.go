package seed

import (
	_ "embed"
	"fmt"
	"time"

	"showcase/internal/models"
	"showcase/internal/slug"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Catalog is the reference data every environment starts with.
type Catalog struct {
	Categories   []CategoryFixture    `yaml:"categories"`
	Competitions []CompetitionFixture `yaml:"competitions"`
}

// CategoryFixture is a tag category with its approved tags.
type CategoryFixture struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Tags        []TagFixture `yaml:"tags"`
}

// TagFixture is one approved tag.
type TagFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// CompetitionFixture is one competition. Dates are calendar days in UTC.
type CompetitionFixture struct {
	Name      string `yaml:"name"`
	Slug      string `yaml:"slug"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Status    string `yaml:"status"`
	Quote     string `yaml:"quote"`
}

// LoadCatalog parses the embedded fixtures.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(fixturesYAML, &c); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &c, nil
}

// SeedCatalog upserts the embedded categories, tags and competitions.
// Running it again refreshes names and descriptions without duplicating rows.
func SeedCatalog(db *gorm.DB) error {
	catalog, err := LoadCatalog()
	if err != nil {
		return err
	}
	for i, cf := range catalog.Categories {
		if err := seedCategory(db, i, cf); err != nil {
			return fmt.Errorf("seed category %s: %w", cf.Name, err)
		}
	}
	for _, comp := range catalog.Competitions {
		if err := seedCompetition(db, comp); err != nil {
			return fmt.Errorf("seed competition %s: %w", comp.Name, err)
		}
	}
	return nil
}

func seedCategory(db *gorm.DB, order int, cf CategoryFixture) error {
	return db.Transaction(func(tx *gorm.DB) error {
		category := models.TagCategory{
			Name:         cf.Name,
			Slug:         slug.FromName(cf.Name),
			Description:  cf.Description,
			DisplayOrder: order,
			IsActive:     true,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "display_order", "updated_at"}),
		}).Create(&category).Error; err != nil {
			return err
		}
		// On conflict the struct keeps the generated id, not the stored one.
		if err := tx.Where("slug = ?", category.Slug).First(&category).Error; err != nil {
			return err
		}

		for _, tf := range cf.Tags {
			tag := models.Tag{
				Name:        tf.Name,
				Slug:        slug.FromName(tf.Name),
				Description: tf.Description,
				Color:       tf.Color,
				CategoryID:  &category.ID,
				Status:      models.TagStatusApproved,
			}
			if err := tx.Omit("Category").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"description", "color", "category_id", "updated_at"}),
			}).Create(&tag).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func seedCompetition(db *gorm.DB, cf CompetitionFixture) error {
	start, err := time.Parse(time.DateOnly, cf.StartDate)
	if err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, cf.EndDate)
	if err != nil {
		return fmt.Errorf("end_date: %w", err)
	}
	competition := models.Competition{
		Name:      cf.Name,
		Slug:      cf.Slug,
		StartDate: start,
		EndDate:   end,
		Status:    models.CompetitionStatus(cf.Status),
		Quote:     cf.Quote,
	}
	if !competition.Status.Valid() {
		return fmt.Errorf("unknown status %q", cf.Status)
	}
	return db.Omit("Projects", "Winner").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&competition).Error
}
