package server

import (
	"showcase/internal/service"
	"showcase/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListTags handles GET /api/tags
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.tagService.List(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(tags)
}

// ListTagCategories handles GET /api/tags/categories
func (s *Server) ListTagCategories(c *fiber.Ctx) error {
	categories, err := s.tagService.ListCategories(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(categories)
}

// ListGroupedTags handles GET /api/tags/grouped
// @Summary List tags grouped by category
// @Tags tags
// @Produce json
// @Param with_projects query bool false "Only tags used by approved projects"
// @Success 200 {array} repository.TagGroup
// @Router /tags/grouped [get]
func (s *Server) ListGroupedTags(c *fiber.Ctx) error {
	groups, err := s.tagService.ListGrouped(c.UserContext(), c.QueryBool("with_projects", false))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(groups)
}

// SuggestTag handles POST /api/tags/suggest
// @Summary Suggest a new tag
// @Description The tag is created pending and is usable until an admin rejects it.
// @Tags tags
// @Accept json
// @Produce json
// @Param request body validation.SuggestTagRequest true "Tag"
// @Success 201 {object} models.Tag
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tags/suggest [post]
func (s *Server) SuggestTag(c *fiber.Ctx) error {
	var req validation.SuggestTagRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	tag, err := s.tagService.Suggest(c.UserContext(), service.SuggestTagInput{
		UserID:      currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}
