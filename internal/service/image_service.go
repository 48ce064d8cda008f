package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/repository"
	"showcase/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxImageSizeBytes   = 10 * 1024 * 1024
	MaxImagesPerProject = 10
	DefaultUploadURLTTL = time.Hour
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// RequestUploadInput describes the file a client intends to upload.
type RequestUploadInput struct {
	ProjectID   uuid.UUID
	OwnerID     uint
	Filename    string
	ContentType string
	FileSize    int64
}

// UploadDescriptor tells the client where to PUT the file and which image to
// confirm afterwards.
type UploadDescriptor struct {
	UploadURL  string            `json:"upload_url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers"`
	ImageID    uuid.UUID         `json:"image_id"`
	StorageKey string            `json:"storage_key"`
}

// CompleteUploadInput confirms a pending image.
type CompleteUploadInput struct {
	ProjectID uuid.UUID
	OwnerID   uint
	ImageID   uuid.UUID
	Width     *int
	Height    *int
}

// ImageService coordinates the two-phase presigned upload of project images.
type ImageService struct {
	repo        repository.ImageRepository
	projects    repository.ProjectRepository
	storage     storage.Gateway
	invalidator Invalidator
	uploadTTL   time.Duration
}

func NewImageService(
	repo repository.ImageRepository,
	projects repository.ProjectRepository,
	gateway storage.Gateway,
	invalidator Invalidator,
	uploadTTL time.Duration,
) *ImageService {
	if uploadTTL <= 0 {
		uploadTTL = DefaultUploadURLTTL
	}
	return &ImageService{
		repo:        repo,
		projects:    projects,
		storage:     gateway,
		invalidator: invalidator,
		uploadTTL:   uploadTTL,
	}
}

// RequestUpload validates the file, records a pending image and returns a
// presigned PUT for it.
func (s *ImageService) RequestUpload(ctx context.Context, in RequestUploadInput) (*UploadDescriptor, error) {
	if _, err := s.ownedProject(ctx, in.ProjectID, in.OwnerID); err != nil {
		return nil, err
	}

	contentType := normalizeContentType(in.ContentType)
	if !allowedImageTypes[contentType] {
		observability.ImageUploads.WithLabelValues("request", "invalid_type").Inc()
		return nil, models.NewValidationError("Content type must be one of: " + strings.Join(AllowedImageTypes(), ", ")).
			WithCause(ErrInvalidContentType)
	}
	if in.FileSize <= 0 || in.FileSize > MaxImageSizeBytes {
		observability.ImageUploads.WithLabelValues("request", "too_large").Inc()
		return nil, models.NewValidationError("File size must be less than 10MB").WithCause(ErrFileTooLarge)
	}

	// Not serialized: concurrent requests may overshoot the cap slightly.
	uploaded, err := s.repo.CountUploaded(ctx, in.ProjectID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if uploaded >= MaxImagesPerProject {
		observability.ImageUploads.WithLabelValues("request", "limit").Inc()
		return nil, models.NewValidationError(fmt.Sprintf("Maximum %d images per project", MaxImagesPerProject)).
			WithCause(ErrImageLimitExceeded)
	}

	key := s.storage.GenerateKey(in.ProjectID, in.Filename)
	image := &models.ProjectImage{
		ProjectID:        in.ProjectID,
		StorageKey:       key,
		OriginalFilename: truncate(in.Filename, 255),
		ContentType:      contentType,
		FileSize:         in.FileSize,
		DisplayOrder:     int(uploaded),
		UploadStatus:     models.ImageUploadStatusPending,
	}
	if err := s.repo.Create(ctx, image); err != nil {
		return nil, models.NewInternalError(err)
	}

	spanCtx, span := observability.StartStorageSpan(ctx, "presign_put", key)
	done := observability.TrackStorage("presign_put")
	presigned, err := s.storage.PresignPut(spanCtx, key, contentType, s.uploadTTL)
	done()
	if err != nil {
		observability.RecordErrorInContext(spanCtx, err)
		span.End()
		observability.ImageUploads.WithLabelValues("request", "presign_failed").Inc()
		if delErr := s.repo.Delete(ctx, image.ID); delErr != nil {
			slog.ErrorContext(ctx, "failed to remove pending image after presign error",
				slog.String("image_id", image.ID.String()),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, models.NewInternalError(err)
	}
	span.End()

	observability.ImageUploads.WithLabelValues("request", "ok").Inc()
	slog.InfoContext(ctx, "image upload requested",
		slog.String("project_id", in.ProjectID.String()),
		slog.String("image_id", image.ID.String()),
		slog.String("content_type", contentType),
		slog.Int64("file_size", in.FileSize),
	)
	return &UploadDescriptor{
		UploadURL:  presigned.URL,
		Method:     presigned.Method,
		Headers:    presigned.Headers,
		ImageID:    image.ID,
		StorageKey: key,
	}, nil
}

// CompleteUpload verifies the object landed in storage and marks the image
// uploaded. The first uploaded image becomes the main image.
func (s *ImageService) CompleteUpload(ctx context.Context, in CompleteUploadInput) (*models.ProjectImage, error) {
	if _, err := s.ownedProject(ctx, in.ProjectID, in.OwnerID); err != nil {
		return nil, err
	}
	image, err := s.repo.GetForProject(ctx, in.ProjectID, in.ImageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, imageNotFound(in.ImageID)
		}
		return nil, models.NewInternalError(err)
	}
	if image.UploadStatus != models.ImageUploadStatusPending {
		return nil, imageNotFound(in.ImageID)
	}

	existsCtx, cancel := context.WithTimeout(ctx, storage.DefaultTimeout)
	existsCtx, span := observability.StartStorageSpan(existsCtx, "exists", image.StorageKey)
	done := observability.TrackStorage("exists")
	exists, err := s.storage.Exists(existsCtx, image.StorageKey)
	done()
	if err != nil {
		observability.RecordErrorInContext(existsCtx, err)
	}
	span.End()
	cancel()
	if err != nil || !exists {
		outcome := "missing"
		if err != nil {
			outcome = "error"
			slog.WarnContext(ctx, "storage existence check failed",
				slog.String("image_id", image.ID.String()),
				slog.String("error", err.Error()),
			)
		}
		observability.ImageUploads.WithLabelValues("complete", outcome).Inc()
		return nil, models.NewValidationError("Image not found in storage. Upload may have failed.").
			WithCause(ErrImageNotFoundInStorage)
	}

	if err := s.repo.MarkUploaded(ctx, image, in.Width, in.Height); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, imageNotFound(in.ImageID)
		}
		return nil, models.NewInternalError(err)
	}

	observability.ImageUploads.WithLabelValues("complete", "ok").Inc()
	enqueueProject(ctx, s.invalidator, in.ProjectID)
	image.URL = s.storage.PublicURL(image.StorageKey)
	return image, nil
}

// SetMain makes an uploaded image the project's only main image.
func (s *ImageService) SetMain(ctx context.Context, projectID uuid.UUID, ownerID uint, imageID uuid.UUID) (*models.ProjectImage, error) {
	if _, err := s.ownedProject(ctx, projectID, ownerID); err != nil {
		return nil, err
	}
	image, err := s.uploadedImage(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetMain(ctx, image); err != nil {
		return nil, models.NewInternalError(err)
	}
	enqueueProject(ctx, s.invalidator, projectID)
	image.URL = s.storage.PublicURL(image.StorageKey)
	return image, nil
}

// Delete removes an image. The storage delete is best effort; a deleted main
// image hands the flag to the next uploaded image.
func (s *ImageService) Delete(ctx context.Context, projectID uuid.UUID, ownerID uint, imageID uuid.UUID) error {
	if _, err := s.ownedProject(ctx, projectID, ownerID); err != nil {
		return err
	}
	image, err := s.repo.GetForProject(ctx, projectID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return imageNotFound(imageID)
		}
		return models.NewInternalError(err)
	}

	deleteObject(ctx, s.storage, image.StorageKey)

	if err := s.repo.DeleteAndPromote(ctx, image); err != nil {
		return models.NewInternalError(err)
	}
	enqueueProject(ctx, s.invalidator, projectID)
	slog.InfoContext(ctx, "image deleted",
		slog.String("project_id", projectID.String()),
		slog.String("image_id", imageID.String()),
		slog.Bool("was_main", image.IsMain),
	)
	return nil
}

// List returns every image of an owned project in display order.
func (s *ImageService) List(ctx context.Context, projectID uuid.UUID, ownerID uint) ([]models.ProjectImage, error) {
	if _, err := s.ownedProject(ctx, projectID, ownerID); err != nil {
		return nil, err
	}
	images, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range images {
		images[i].URL = s.storage.PublicURL(images[i].StorageKey)
	}
	return images, nil
}

func (s *ImageService) ownedProject(ctx context.Context, projectID uuid.UUID, ownerID uint) (*models.Project, error) {
	project, err := s.projects.GetOwned(ctx, projectID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, projectNotFound(projectID)
		}
		return nil, models.NewInternalError(err)
	}
	return project, nil
}

func (s *ImageService) uploadedImage(ctx context.Context, projectID, imageID uuid.UUID) (*models.ProjectImage, error) {
	image, err := s.repo.GetForProject(ctx, projectID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, imageNotFound(imageID)
		}
		return nil, models.NewInternalError(err)
	}
	if image.UploadStatus != models.ImageUploadStatusUploaded {
		return nil, imageNotFound(imageID)
	}
	return image, nil
}

// deleteObject removes key from storage, logging instead of failing.
func deleteObject(ctx context.Context, gateway storage.Gateway, key string) {
	if gateway == nil || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, storage.DefaultTimeout)
	defer cancel()
	ctx, span := observability.StartStorageSpan(ctx, "delete", key)
	defer span.End()
	defer observability.TrackStorage("delete")()

	if err := gateway.Delete(ctx, key); err != nil {
		observability.RecordErrorInContext(ctx, err)
		slog.WarnContext(ctx, "failed to delete object from storage",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// AllowedImageTypes lists the accepted content types, sorted.
func AllowedImageTypes() []string {
	out := make([]string, 0, len(allowedImageTypes))
	for t := range allowedImageTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
