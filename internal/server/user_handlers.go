package server

import (
	"showcase/internal/models"
	"showcase/internal/service"
	"showcase/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// MeResponse is the authenticated user's profile.
type MeResponse struct {
	User    *models.User `json:"user"`
	IsAdmin bool         `json:"is_admin"`
}

// GetMe handles GET /api/me
// @Summary Get current user
// @Tags users
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
	return c.JSON(MeResponse{User: user, IsAdmin: user.IsAdmin()})
}

// RegisterUser handles POST /api/users
// @Summary Register the token's subject
// @Description First login: creates the user the identity provider's token names
// @Tags users
// @Accept json
// @Produce json
// @Param request body validation.RegisterUserRequest true "Identity claims"
// @Success 201 {object} MeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users [post]
func (s *Server) RegisterUser(c *fiber.Ctx) error {
	var req validation.RegisterUserRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.Register(c.UserContext(), service.RegisterUserInput{
		ID:        currentUserID(c),
		Email:     req.Email,
		Kennitala: req.Kennitala,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(MeResponse{User: user, IsAdmin: user.IsAdmin()})
}

// GetUserProfile handles GET /api/users/:id
// @Summary Get a public user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid ID"))
	}
	profile, err := s.userService.GetProfile(c.UserContext(), uint(id))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(profile)
}
