package server

import (
	"showcase/internal/models"
	"showcase/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListMyReviews handles GET /api/my/reviews
func (s *Server) ListMyReviews(c *fiber.Ctx) error {
	assigned, err := s.reviewService.ListAssigned(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(assigned)
}

// GetMyReview handles GET /api/my/reviews/:competitionId
// @Summary Get a competition to review
// @Description Approved projects of the competition with the caller's positions.
// @Tags reviews
// @Produce json
// @Param competitionId path string true "Competition ID"
// @Success 200 {object} service.CompetitionReview
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /my/reviews/{competitionId} [get]
func (s *Server) GetMyReview(c *fiber.Ctx) error {
	competitionID, err := s.parseUUID(c, "competitionId")
	if err != nil {
		return nil
	}
	review, err := s.reviewService.GetCompetition(c.UserContext(), currentUserID(c), competitionID)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(review)
}

// GetReviewProject handles GET /api/my/reviews/projects/:projectId
func (s *Server) GetReviewProject(c *fiber.Ctx) error {
	projectID, err := s.parseUUID(c, "projectId")
	if err != nil {
		return nil
	}
	project, err := s.reviewService.GetProject(c.UserContext(), currentUserID(c), projectID)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(project)
}

// UpdateRankings handles PUT /api/my/reviews/:competitionId/rankings
// @Summary Replace the caller's rankings
// @Description project_ids is ordered best first. An empty list clears the rankings.
// @Tags reviews
// @Accept json
// @Produce json
// @Param competitionId path string true "Competition ID"
// @Param request body validation.RankingsRequest true "Ordering"
// @Success 200 {array} models.ProjectRanking
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /my/reviews/{competitionId}/rankings [put]
func (s *Server) UpdateRankings(c *fiber.Ctx) error {
	competitionID, err := s.parseUUID(c, "competitionId")
	if err != nil {
		return nil
	}
	var req validation.RankingsRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	rankings, err := s.reviewService.UpdateRankings(c.UserContext(), currentUserID(c), competitionID, req.ProjectIDs)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(rankings)
}

// UpdateReviewStatus handles PUT /api/my/reviews/:competitionId/status
func (s *Server) UpdateReviewStatus(c *fiber.Ctx) error {
	competitionID, err := s.parseUUID(c, "competitionId")
	if err != nil {
		return nil
	}
	var req validation.ReviewStatusRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	assignment, err := s.reviewService.UpdateStatus(c.UserContext(), currentUserID(c), competitionID,
		models.ReviewStatus(req.Status))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(assignment)
}
