package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListCompetitions handles GET /api/competitions
func (s *Server) ListCompetitions(c *fiber.Ctx) error {
	competitions, err := s.competitionService.List(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(competitions)
}

// ListCompetitionsWithProjects handles GET /api/competitions/with-projects
func (s *Server) ListCompetitionsWithProjects(c *fiber.Ctx) error {
	competitions, err := s.competitionService.ListWithProjects(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(competitions)
}

// GetActiveOrRecentCompetition handles GET /api/competitions/active-or-recent
// @Summary Get the open and the latest closed competition
// @Tags competitions
// @Produce json
// @Success 200 {object} service.ActiveOrRecent
// @Router /competitions/active-or-recent [get]
func (s *Server) GetActiveOrRecentCompetition(c *fiber.Ctx) error {
	result, err := s.competitionService.ActiveOrRecent(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(result)
}

// GetCompetition handles GET /api/competitions/:idOrSlug
// @Summary Get a competition by id or slug
// @Tags competitions
// @Produce json
// @Param idOrSlug path string true "Competition ID or slug"
// @Success 200 {object} models.Competition
// @Failure 404 {object} models.ErrorResponse
// @Router /competitions/{idOrSlug} [get]
func (s *Server) GetCompetition(c *fiber.Ctx) error {
	competition, err := s.competitionService.Get(c.UserContext(), c.Params("idOrSlug"))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(competition)
}
