package server

import (
	"context"
	"errors"
	"log/slog"

	"showcase/internal/middleware"
	"showcase/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "userID"
	localUser   = "user"
)

// verifiedClaims checks the bearer token and its revocation. On failure it
// writes the 401 and returns nil.
func (s *Server) verifiedClaims(c *fiber.Ctx) *middleware.TokenClaims {
	claims, err := s.verifier.ParseBearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		msg := "Invalid or expired token"
		if errors.Is(err, middleware.ErrMissingToken) {
			msg = "Authorization required"
		}
		_ = models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		return nil
	}
	if s.isRevoked(c.UserContext(), claims.JTI) {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Token has been revoked"))
		return nil
	}
	return claims
}

// AuthRequired verifies the bearer token, rejects revoked tokens and resolves
// the subject to an active user.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := s.verifiedClaims(c)
		if claims == nil {
			return nil
		}

		user, err := s.userService.GetActive(c.UserContext(), claims.UserID)
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("User not found or inactive"))
			}
			return s.respond(c, err)
		}

		s.setUser(c, user)
		return c.Next()
	}
}

// TokenRequired verifies the bearer token but does not require the subject to
// have a user yet. Only registration sits behind it.
func (s *Server) TokenRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := s.verifiedClaims(c)
		if claims == nil {
			return nil
		}
		c.Locals(localUserID, claims.UserID)
		c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, claims.UserID))
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}
		claims, err := s.verifier.ParseBearerToken(header)
		if err != nil || s.isRevoked(c.UserContext(), claims.JTI) {
			return c.Next()
		}
		user, err := s.userService.GetActive(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Next()
		}
		s.setUser(c, user)
		return c.Next()
	}
}

// AdminRequired rejects non-admin users with 403.
// Must be placed after AuthRequired so that the user is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil || !user.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) setUser(c *fiber.Ctx, user *models.User) {
	c.Locals(localUserID, user.ID)
	c.Locals(localUser, user)
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID))
}

func (s *Server) isRevoked(ctx context.Context, jti string) bool {
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, "blacklist:"+jti).Result()
	if err != nil {
		slog.WarnContext(ctx, "token revocation lookup failed", slog.String("error", err.Error()))
		return false
	}
	return n > 0
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}
