package database

import "showcase/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Join tables (project_tags, competition_projects) are created through the associations.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.TagCategory{},
		&models.Tag{},
		&models.Project{},
		&models.ProjectImage{},
		&models.Competition{},
		&models.CompetitionReviewer{},
		&models.ProjectRanking{},
	}
}
