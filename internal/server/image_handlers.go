package server

import (
	"showcase/internal/service"
	"showcase/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListProjectImages handles GET /api/my/projects/:id/images
func (s *Server) ListProjectImages(c *fiber.Ctx) error {
	projectID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	images, err := s.imageService.List(c.UserContext(), projectID, currentUserID(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(images)
}

// RequestImageUpload handles POST /api/my/projects/:id/images/upload-url
// @Summary Request a presigned image upload
// @Description Records a pending image and returns a URL the client PUTs the file to.
// @Tags images
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body validation.UploadURLRequest true "File"
// @Success 200 {object} service.UploadDescriptor
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /my/projects/{id}/images/upload-url [post]
func (s *Server) RequestImageUpload(c *fiber.Ctx) error {
	projectID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.UploadURLRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	descriptor, err := s.imageService.RequestUpload(c.UserContext(), service.RequestUploadInput{
		ProjectID:   projectID,
		OwnerID:     currentUserID(c),
		Filename:    req.Filename,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
	})
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(descriptor)
}

// CompleteImageUpload handles POST /api/my/projects/:id/images/:imageId/complete
// @Summary Confirm an image upload
// @Tags images
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param imageId path string true "Image ID"
// @Param request body validation.CompleteUploadRequest false "Dimensions"
// @Success 200 {object} models.ProjectImage
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /my/projects/{id}/images/{imageId}/complete [post]
func (s *Server) CompleteImageUpload(c *fiber.Ctx) error {
	projectID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	imageID, err := s.parseUUID(c, "imageId")
	if err != nil {
		return nil
	}
	var req validation.CompleteUploadRequest
	if len(c.Body()) > 0 {
		if err := s.parseBody(c, &req); err != nil {
			return nil
		}
	}
	image, err := s.imageService.CompleteUpload(c.UserContext(), service.CompleteUploadInput{
		ProjectID: projectID,
		OwnerID:   currentUserID(c),
		ImageID:   imageID,
		Width:     req.Width,
		Height:    req.Height,
	})
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(image)
}

// SetMainImage handles POST /api/my/projects/:id/images/main
func (s *Server) SetMainImage(c *fiber.Ctx) error {
	projectID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.SetMainImageRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	image, err := s.imageService.SetMain(c.UserContext(), projectID, currentUserID(c), req.ImageID)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(image)
}

// DeleteProjectImage handles DELETE /api/my/projects/:id/images/:imageId
func (s *Server) DeleteProjectImage(c *fiber.Ctx) error {
	projectID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	imageID, err := s.parseUUID(c, "imageId")
	if err != nil {
		return nil
	}
	if err := s.imageService.Delete(c.UserContext(), projectID, currentUserID(c), imageID); err != nil {
		return s.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
