package repository

import (
	"context"
	"testing"

	"showcase/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository_FindUsable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	ok := createTag(t, db, "Go", models.TagStatusApproved, nil)
	pending := createTag(t, db, "Rust", models.TagStatusPending, nil)
	rejected := createTag(t, db, "Spam", models.TagStatusRejected, nil)

	tags, err := repo.FindUsable(ctx, []uuid.UUID{ok.ID, pending.ID, rejected.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	tags, err = repo.FindUsable(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestTagRepository_ListGrouped(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, false)

	lang := &models.TagCategory{Name: "Languages", DisplayOrder: 1}
	empty := &models.TagCategory{Name: "Empty", DisplayOrder: 0}
	require.NoError(t, repo.CreateCategory(ctx, lang))
	require.NoError(t, repo.CreateCategory(ctx, empty))

	goTag := createTag(t, db, "Go", models.TagStatusApproved, lang)
	createTag(t, db, "Elm", models.TagStatusPending, lang)
	createTag(t, db, "Spam", models.TagStatusRejected, lang)

	project := createProject(t, db, owner, "gopher", models.ProjectStatusApproved)
	require.NoError(t, db.Exec("INSERT INTO project_tags (project_id, tag_id) VALUES (?, ?)", project.ID, goTag.ID).Error)

	groups, err := repo.ListGrouped(ctx, false)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "languages", groups[0].Category.Slug)
	assert.Len(t, groups[0].Tags, 2)

	groups, err = repo.ListGrouped(ctx, true)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Tags, 1)
	assert.Equal(t, "go", groups[0].Tags[0].Slug)
}

func TestTagRepository_ReviewRejectDetaches(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, false)
	admin := createUser(t, db, true)

	tag := createTag(t, db, "Crypto", models.TagStatusPending, nil)
	project := createProject(t, db, owner, "coin", models.ProjectStatusApproved)
	require.NoError(t, db.Exec("INSERT INTO project_tags (project_id, tag_id) VALUES (?, ?)", project.ID, tag.ID).Error)

	require.NoError(t, repo.Review(ctx, tag, models.TagStatusRejected, admin.ID))
	assert.Equal(t, models.TagStatusRejected, tag.Status)
	require.NotNil(t, tag.ReviewedByID)
	assert.Equal(t, admin.ID, *tag.ReviewedByID)

	var links int64
	db.Table("project_tags").Where("tag_id = ?", tag.ID).Count(&links)
	assert.Zero(t, links)

	stored, err := repo.GetByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TagStatusRejected, stored.Status)
	assert.NotNil(t, stored.ReviewedAt)
}

func TestTagRepository_NameOrSlugTaken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()
	createTag(t, db, "React Native", models.TagStatusApproved, nil)

	taken, err := repo.NameOrSlugTaken(ctx, "react native", "something-else")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.NameOrSlugTaken(ctx, "React-Native", "react-native")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.NameOrSlugTaken(ctx, "Vue", "vue")
	require.NoError(t, err)
	assert.False(t, taken)
}
