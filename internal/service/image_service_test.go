package service

import (
	"context"
	"errors"
	"testing"

	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestPNG(t *testing.T, env *testEnv, p *models.Project, ownerID uint) *UploadDescriptor {
	t.Helper()
	desc, err := env.images.RequestUpload(context.Background(), RequestUploadInput{
		ProjectID:   p.ID,
		OwnerID:     ownerID,
		Filename:    "Screen Shot.png",
		ContentType: "image/png",
		FileSize:    2048,
	})
	require.NoError(t, err)
	return desc
}

func uploadPNG(t *testing.T, env *testEnv, p *models.Project, ownerID uint) *models.ProjectImage {
	t.Helper()
	desc := requestPNG(t, env, p, ownerID)
	env.gateway.Put(desc.StorageKey)
	img, err := env.images.CompleteUpload(context.Background(), CompleteUploadInput{
		ProjectID: p.ID, OwnerID: ownerID, ImageID: desc.ImageID,
	})
	require.NoError(t, err)
	return img
}

func mainCount(t *testing.T, env *testEnv, projectID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&models.ProjectImage{}).
		Where("project_id = ? AND is_main = ?", projectID, true).Count(&n).Error)
	return n
}

func TestImageService_RequestUpload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t)
	p := env.project(t, owner, "pics")

	t.Run("returns presigned put", func(t *testing.T) {
		desc := requestPNG(t, env, p, owner.ID)
		assert.Equal(t, "PUT", desc.Method)
		assert.Equal(t, "image/png", desc.Headers["Content-Type"])
		assert.Contains(t, desc.StorageKey, p.ID.String())
		assert.Contains(t, desc.UploadURL, desc.StorageKey)

		var img models.ProjectImage
		require.NoError(t, env.db.First(&img, "id = ?", desc.ImageID).Error)
		assert.Equal(t, models.ImageUploadStatusPending, img.UploadStatus)
		assert.False(t, img.IsMain)
	})

	tests := []struct {
		name    string
		in      RequestUploadInput
		wantErr error
	}{
		{"unsupported type", RequestUploadInput{ContentType: "image/bmp", FileSize: 10}, ErrInvalidContentType},
		{"too large", RequestUploadInput{ContentType: "image/jpeg", FileSize: MaxImageSizeBytes + 1}, ErrFileTooLarge},
		{"empty file", RequestUploadInput{ContentType: "image/jpeg", FileSize: 0}, ErrFileTooLarge},
		{"foreign project", RequestUploadInput{ContentType: "image/jpeg", FileSize: 10, OwnerID: owner.ID + 100}, ErrProjectNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.ProjectID = p.ID
			in.Filename = "x.jpg"
			if in.OwnerID == 0 {
				in.OwnerID = owner.ID
			}
			_, err := env.images.RequestUpload(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("content type parameters are ignored", func(t *testing.T) {
		_, err := env.images.RequestUpload(ctx, RequestUploadInput{
			ProjectID: p.ID, OwnerID: owner.ID, Filename: "a.webp", ContentType: "Image/WebP; charset=binary", FileSize: 1,
		})
		assert.NoError(t, err)
	})
}

func TestImageService_UploadLimit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t)
	p := env.project(t, owner, "full")

	for i := 0; i < MaxImagesPerProject; i++ {
		uploadPNG(t, env, p, owner.ID)
	}

	_, err := env.images.RequestUpload(ctx, RequestUploadInput{
		ProjectID: p.ID, OwnerID: owner.ID, Filename: "11.png", ContentType: "image/png", FileSize: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageLimitExceeded)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Maximum 10 images per project", appErr.Message)
	assert.Equal(t, int64(1), mainCount(t, env, p.ID))
}

func TestImageService_PresignFailureRemovesRow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t)
	p := env.project(t, owner, "presign")
	env.gateway.PresignErr = errors.New("signer unavailable")

	_, err := env.images.RequestUpload(context.Background(), RequestUploadInput{
		ProjectID: p.ID, OwnerID: owner.ID, Filename: "a.png", ContentType: "image/png", FileSize: 1,
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))

	var n int64
	env.db.Model(&models.ProjectImage{}).Where("project_id = ?", p.ID).Count(&n)
	assert.Zero(t, n)
}

func TestImageService_CompleteUpload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t)
	p := env.project(t, owner, "complete")

	t.Run("missing object leaves image pending", func(t *testing.T) {
		desc := requestPNG(t, env, p, owner.ID)
		_, err := env.images.CompleteUpload(ctx, CompleteUploadInput{ProjectID: p.ID, OwnerID: owner.ID, ImageID: desc.ImageID})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrImageNotFoundInStorage)
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

		var img models.ProjectImage
		require.NoError(t, env.db.First(&img, "id = ?", desc.ImageID).Error)
		assert.Equal(t, models.ImageUploadStatusPending, img.UploadStatus)
	})

	t.Run("storage error is reported as missing", func(t *testing.T) {
		desc := requestPNG(t, env, p, owner.ID)
		env.gateway.Put(desc.StorageKey)
		env.gateway.ExistsErr = errors.New("timeout")
		defer func() { env.gateway.ExistsErr = nil }()

		_, err := env.images.CompleteUpload(ctx, CompleteUploadInput{ProjectID: p.ID, OwnerID: owner.ID, ImageID: desc.ImageID})
		assert.ErrorIs(t, err, ErrImageNotFoundInStorage)
	})

	t.Run("first upload becomes main", func(t *testing.T) {
		width, height := 1280, 720
		desc := requestPNG(t, env, p, owner.ID)
		env.gateway.Put(desc.StorageKey)
		img, err := env.images.CompleteUpload(ctx, CompleteUploadInput{
			ProjectID: p.ID, OwnerID: owner.ID, ImageID: desc.ImageID, Width: &width, Height: &height,
		})
		require.NoError(t, err)
		assert.True(t, img.IsMain)
		assert.Equal(t, models.ImageUploadStatusUploaded, img.UploadStatus)
		assert.NotNil(t, img.UploadedAt)
		assert.NotEmpty(t, img.URL)

		second := uploadPNG(t, env, p, owner.ID)
		assert.False(t, second.IsMain)
		assert.Equal(t, int64(1), mainCount(t, env, p.ID))

		_, err = env.images.CompleteUpload(ctx, CompleteUploadInput{ProjectID: p.ID, OwnerID: owner.ID, ImageID: desc.ImageID})
		assert.ErrorIs(t, err, ErrImageNotFound, "completing twice")
	})

	t.Run("unknown image", func(t *testing.T) {
		_, err := env.images.CompleteUpload(ctx, CompleteUploadInput{ProjectID: p.ID, OwnerID: owner.ID, ImageID: uuid.New()})
		assert.ErrorIs(t, err, ErrImageNotFound)
	})
}

func TestImageService_SetMainAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t)
	p := env.project(t, owner, "gallery")

	first := uploadPNG(t, env, p, owner.ID)
	second := uploadPNG(t, env, p, owner.ID)
	third := uploadPNG(t, env, p, owner.ID)
	require.True(t, first.IsMain)

	for i := 0; i < 2; i++ {
		img, err := env.images.SetMain(ctx, p.ID, owner.ID, third.ID)
		require.NoError(t, err)
		assert.True(t, img.IsMain)
		assert.Equal(t, int64(1), mainCount(t, env, p.ID))
	}

	pending := requestPNG(t, env, p, owner.ID)
	_, err := env.images.SetMain(ctx, p.ID, owner.ID, pending.ImageID)
	assert.ErrorIs(t, err, ErrImageNotFound)

	require.NoError(t, env.images.Delete(ctx, p.ID, owner.ID, third.ID))
	var promoted models.ProjectImage
	require.NoError(t, env.db.First(&promoted, "project_id = ? AND is_main = ?", p.ID, true).Error)
	assert.Equal(t, first.ID, promoted.ID)

	require.NoError(t, env.images.Delete(ctx, p.ID, owner.ID, second.ID))
	assert.Equal(t, int64(1), mainCount(t, env, p.ID))

	env.gateway.DeleteErr = errors.New("storage down")
	require.NoError(t, env.images.Delete(ctx, p.ID, owner.ID, first.ID), "storage failures do not block the delete")
	assert.Zero(t, mainCount(t, env, p.ID))

	images, err := env.images.List(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, pending.ImageID, images[0].ID)

	assert.ErrorIs(t, env.images.Delete(ctx, p.ID, owner.ID, uuid.New()), ErrImageNotFound)
}

func TestAllowedImageTypes(t *testing.T) {
	assert.Equal(t, []string{"image/gif", "image/jpeg", "image/png", "image/webp"}, AllowedImageTypes())
}

func TestImageService_PublicReadFollowsImageChanges(t *testing.T) {
	ctx := context.Background()
	mr := useCache(t)
	env := newTestEnv(t)
	owner := env.user(t)
	p := env.project(t, owner, "cached")
	_, err := env.projects.Approve(ctx, p.ID, owner.ID)
	require.NoError(t, err)

	publicImages := func() []models.ProjectImage {
		t.Helper()
		view, err := env.projects.GetVisible(ctx, p.ID, repository.Viewer{})
		require.NoError(t, err)
		return view.Images
	}
	mainOf := func(images []models.ProjectImage) uuid.UUID {
		for _, img := range images {
			if img.IsMain {
				return img.ID
			}
		}
		return uuid.Nil
	}

	first := uploadPNG(t, env, p, owner.ID)
	require.Len(t, publicImages(), 1)
	require.True(t, mr.Exists(cache.ProjectKey(p.ID)), "anonymous read is cached")
	before := len(env.invalidator.projects)

	second := uploadPNG(t, env, p, owner.ID)
	images := publicImages()
	require.Len(t, images, 2)
	assert.Equal(t, first.ID, mainOf(images))

	_, err = env.images.SetMain(ctx, p.ID, owner.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, mainOf(publicImages()))

	require.NoError(t, env.images.Delete(ctx, p.ID, owner.ID, second.ID))
	images = publicImages()
	require.Len(t, images, 1)
	assert.Equal(t, first.ID, images[0].ID)
	assert.True(t, images[0].IsMain)

	assert.Equal(t, before+3, len(env.invalidator.projects))
}
