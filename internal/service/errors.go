package service

import (
	"context"
	"errors"
	"log/slog"

	"showcase/internal/cache"
	"showcase/internal/models"

	"github.com/google/uuid"
)

// Domain failures. Services return them wrapped in a models.AppError so the
// HTTP layer can map the code while callers still match with errors.Is.
var (
	ErrProjectNotFound         = errors.New("project not found")
	ErrInvalidProjectState     = errors.New("invalid project state")
	ErrInvalidTags             = errors.New("one or more tag IDs are invalid or rejected")
	ErrCompetitionNotFound     = errors.New("competition not found")
	ErrCompetitionNotAccepting = errors.New("competition is not accepting applications")
	ErrImageNotFound           = errors.New("image not found")
	ErrImageNotFoundInStorage  = errors.New("image not found in storage")
	ErrInvalidContentType      = errors.New("invalid content type")
	ErrFileTooLarge            = errors.New("file too large")
	ErrImageLimitExceeded      = errors.New("image limit exceeded")
	ErrReviewNotFound          = errors.New("review assignment not found")
	ErrReviewCompleted         = errors.New("review already completed")
	ErrInvalidProjects         = errors.New("invalid projects for competition")
	ErrTagNotFound             = errors.New("tag not found")
	ErrTagExists               = errors.New("tag already exists")
	ErrTagAlreadyReviewed      = errors.New("tag already reviewed")
)

func projectNotFound(id uuid.UUID) error {
	return models.NewNotFoundError("Project", id).WithCause(ErrProjectNotFound)
}

func competitionNotFound(id any) error {
	return models.NewNotFoundError("Competition", id).WithCause(ErrCompetitionNotFound)
}

func imageNotFound(id uuid.UUID) error {
	return models.NewNotFoundError("Image", id).WithCause(ErrImageNotFound)
}

func reviewNotFound(id uuid.UUID) error {
	return models.NewNotFoundError("Competition", id).WithCause(ErrReviewNotFound)
}

// Invalidator is the fire-and-forget sink for cache and page invalidation.
type Invalidator interface {
	EnqueueInvalidate(ctx context.Context, projectID uuid.UUID) error
	EnqueueCompetitionsChanged(ctx context.Context) error
	EnqueueTagsChanged(ctx context.Context) error
}

// enqueueProject drops the cached project and listings before queueing the
// page revalidation, so the next read already sees the change.
func enqueueProject(ctx context.Context, inv Invalidator, projectID uuid.UUID) {
	cache.InvalidateProject(ctx, projectID)
	if inv == nil {
		return
	}
	if err := inv.EnqueueInvalidate(ctx, projectID); err != nil {
		slog.WarnContext(ctx, "failed to enqueue project invalidation",
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func enqueueCompetitions(ctx context.Context, inv Invalidator) {
	cache.InvalidateCompetitions(ctx)
	if inv == nil {
		return
	}
	if err := inv.EnqueueCompetitionsChanged(ctx); err != nil {
		slog.WarnContext(ctx, "failed to enqueue competition invalidation", slog.String("error", err.Error()))
	}
}

func enqueueTags(ctx context.Context, inv Invalidator) {
	cache.InvalidateTags(ctx)
	if inv == nil {
		return
	}
	if err := inv.EnqueueTagsChanged(ctx); err != nil {
		slog.WarnContext(ctx, "failed to enqueue tag invalidation", slog.String("error", err.Error()))
	}
}
