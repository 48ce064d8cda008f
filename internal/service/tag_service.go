package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/slug"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagService validates tag sets and runs the tag moderation workflow.
type TagService struct {
	repo        repository.TagRepository
	invalidator Invalidator
}

// SuggestTagInput is a user-submitted tag.
type SuggestTagInput struct {
	UserID      uint
	Name        string
	Description string
	Color       string
	CategoryID  uuid.UUID
}

func NewTagService(repo repository.TagRepository, invalidator Invalidator) *TagService {
	return &TagService{repo: repo, invalidator: invalidator}
}

// Validate returns the tags for ids, failing with ErrInvalidTags unless every
// id names a distinct tag that is not rejected.
func (s *TagService) Validate(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	tags, err := s.repo.FindUsable(ctx, ids)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(tags) != len(ids) {
		return nil, models.NewValidationError("One or more tag IDs are invalid or rejected").WithCause(ErrInvalidTags)
	}
	return tags, nil
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.Aside(ctx, cache.TagsKey, &tags, cache.TagTTL, func() error {
		var err error
		tags, err = s.repo.ListVisible(ctx)
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

func (s *TagService) ListCategories(ctx context.Context) ([]models.TagCategory, error) {
	var categories []models.TagCategory
	err := cache.Aside(ctx, cache.TagCategoriesKey, &categories, cache.TagTTL, func() error {
		var err error
		categories, err = s.repo.ListCategories(ctx)
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (s *TagService) ListGrouped(ctx context.Context, withProjects bool) ([]repository.TagGroup, error) {
	var groups []repository.TagGroup
	err := cache.Aside(ctx, cache.TagsGroupedKeyFor(withProjects), &groups, cache.TagTTL, func() error {
		var err error
		groups, err = s.repo.ListGrouped(ctx, withProjects)
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

// Suggest creates a pending tag in an active category. Pending tags are usable
// on projects straight away.
func (s *TagService) Suggest(ctx context.Context, in SuggestTagInput) (*models.Tag, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Tag name is required")
	}
	tagSlug := slug.FromName(name)
	if tagSlug == "" {
		return nil, models.NewValidationError("Tag name must contain letters or digits")
	}

	category, err := s.repo.GetActiveCategory(ctx, in.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Tag category", in.CategoryID)
		}
		return nil, models.NewInternalError(err)
	}

	taken, err := s.repo.NameOrSlugTaken(ctx, name, tagSlug)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if taken {
		return nil, models.NewConflictError("A tag with this name already exists").WithCause(ErrTagExists)
	}

	createdBy := in.UserID
	tag := &models.Tag{
		Name:        name,
		Slug:        tagSlug,
		Description: strings.TrimSpace(in.Description),
		Color:       in.Color,
		CategoryID:  &category.ID,
		Status:      models.TagStatusPending,
		CreatedByID: &createdBy,
	}
	if err := s.repo.Create(ctx, tag); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewConflictError("A tag with this name already exists").WithCause(ErrTagExists)
		}
		return nil, models.NewInternalError(err)
	}
	tag.Category = category

	slog.InfoContext(ctx, "tag suggested", slog.String("tag_id", tag.ID.String()), slog.String("slug", tag.Slug))
	enqueueTags(ctx, s.invalidator)
	return tag, nil
}

func (s *TagService) ListPending(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

// Approve moves a pending tag to approved.
func (s *TagService) Approve(ctx context.Context, id uuid.UUID, reviewerID uint) (*models.Tag, error) {
	tag, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch tag.Status {
	case models.TagStatusApproved:
		return nil, models.NewInvalidStateError("Tag is already approved").WithCause(ErrTagAlreadyReviewed)
	case models.TagStatusRejected:
		return nil, models.NewInvalidStateError("Cannot approve a rejected tag").WithCause(ErrTagAlreadyReviewed)
	}
	if err := s.repo.Review(ctx, tag, models.TagStatusApproved, reviewerID); err != nil {
		return nil, models.NewInternalError(err)
	}
	enqueueTags(ctx, s.invalidator)
	return tag, nil
}

// Reject marks a tag rejected and detaches it from every project.
func (s *TagService) Reject(ctx context.Context, id uuid.UUID, reviewerID uint) (*models.Tag, error) {
	tag, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag.Status == models.TagStatusRejected {
		return nil, models.NewInvalidStateError("Tag is already rejected").WithCause(ErrTagAlreadyReviewed)
	}
	if err := s.repo.Review(ctx, tag, models.TagStatusRejected, reviewerID); err != nil {
		return nil, models.NewInternalError(err)
	}
	slog.InfoContext(ctx, "tag rejected", slog.String("tag_id", tag.ID.String()), slog.Uint64("reviewer_id", uint64(reviewerID)))
	enqueueTags(ctx, s.invalidator)
	return tag, nil
}

func (s *TagService) get(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	tag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Tag", id).WithCause(ErrTagNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	return tag, nil
}
