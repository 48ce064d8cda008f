package server

import (
	"showcase/internal/models"
	"showcase/internal/service"
	"showcase/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListPendingTags handles GET /api/admin/tags/pending
func (s *Server) ListPendingTags(c *fiber.Ctx) error {
	tags, err := s.tagService.ListPending(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(tags)
}

// ApproveTag handles POST /api/admin/tags/:id/approve
func (s *Server) ApproveTag(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	tag, err := s.tagService.Approve(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(tag)
}

// RejectTag handles POST /api/admin/tags/:id/reject
func (s *Server) RejectTag(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	tag, err := s.tagService.Reject(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(tag)
}

// CreateCompetition handles POST /api/admin/competitions
// @Summary Create a competition
// @Tags admin
// @Accept json
// @Produce json
// @Param request body validation.CompetitionRequest true "Competition"
// @Success 201 {object} models.Competition
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/competitions [post]
func (s *Server) CreateCompetition(c *fiber.Ctx) error {
	var req validation.CompetitionRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	competition, err := s.competitionService.Create(c.UserContext(), competitionInput(req))
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(competition)
}

// UpdateCompetition handles PUT /api/admin/competitions/:id
func (s *Server) UpdateCompetition(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.CompetitionRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	competition, err := s.competitionService.Update(c.UserContext(), id, competitionInput(req))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(competition)
}

// AddCompetitionProject handles POST /api/admin/competitions/:id/projects
func (s *Server) AddCompetitionProject(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.CompetitionProjectRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.competitionService.AddProject(c.UserContext(), id, req.ProjectID); err != nil {
		return s.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AssignReviewer handles POST /api/admin/competitions/:id/reviewers
// @Summary Assign a reviewer to a competition
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Competition ID"
// @Param request body validation.AssignReviewerRequest true "Reviewer"
// @Success 201 {object} models.CompetitionReviewer
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/competitions/{id}/reviewers [post]
func (s *Server) AssignReviewer(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.AssignReviewerRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	assignment, err := s.reviewService.Assign(c.UserContext(), id, req.UserID)
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

func competitionInput(req validation.CompetitionRequest) service.CompetitionInput {
	return service.CompetitionInput{
		Name:        req.Name,
		Slug:        req.Slug,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		PrizeAmount: req.PrizeAmount,
		Quote:       req.Quote,
		Image:       req.Image,
		Status:      models.CompetitionStatus(req.Status),
		WinnerID:    req.WinnerID,
	}
}
