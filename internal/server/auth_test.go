package server

import (
	"testing"

	"showcase/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequired(t *testing.T) {
	a := newTestApp(t)
	member := a.user(t, false)

	inactive := a.user(t, false)
	require.NoError(t, a.db.Model(inactive).Update("is_active", false).Error)

	revoked := a.user(t, false)
	require.NoError(t, a.redis.Set("blacklist:jti-revoked", "1"))

	tests := []struct {
		name    string
		token   string
		status  int
		message string
	}{
		{"missing token", "", fiber.StatusUnauthorized, "Authorization required"},
		{"garbage token", "not.a.jwt", fiber.StatusUnauthorized, "Invalid or expired token"},
		{"revoked token", signedToken(t, revoked.ID, "jti-revoked"), fiber.StatusUnauthorized, "Token has been revoked"},
		{"inactive user", tokenFor(t, inactive), fiber.StatusUnauthorized, "User not found or inactive"},
		{"unknown user", signedToken(t, 999999, "jti-ghost"), fiber.StatusUnauthorized, "User not found or inactive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body models.ErrorResponse
			status := a.do(t, fiber.MethodGet, "/api/me", tt.token, nil, &body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body.Error)
			assert.Equal(t, models.CodeUnauthorized, body.Code)
		})
	}

	t.Run("valid token", func(t *testing.T) {
		var body MeResponse
		status := a.do(t, fiber.MethodGet, "/api/me", tokenFor(t, member), nil, &body)
		assert.Equal(t, fiber.StatusOK, status)
		require.NotNil(t, body.User)
		assert.Equal(t, member.Email, body.User.Email)
		assert.False(t, body.IsAdmin)
	})
}

func TestAdminRequired(t *testing.T) {
	a := newTestApp(t)
	member := a.user(t, false)
	admin := a.user(t, true)

	var body models.ErrorResponse
	status := a.do(t, fiber.MethodGet, "/api/admin/tags/pending", tokenFor(t, member), nil, &body)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Admin access required", body.Error)

	var tags []models.Tag
	status = a.do(t, fiber.MethodGet, "/api/admin/tags/pending", tokenFor(t, admin), nil, &tags)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, tags)

	superuser := a.user(t, false)
	require.NoError(t, a.db.Model(superuser).Update("is_superuser", true).Error)
	status = a.do(t, fiber.MethodGet, "/api/admin/tags/pending", tokenFor(t, superuser), nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestOptionalAuth_IgnoresBadTokens(t *testing.T) {
	a := newTestApp(t)

	var body models.ErrorResponse
	status := a.do(t, fiber.MethodGet, "/api/projects/00000000-0000-0000-0000-000000000001", "garbage", nil, &body)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, body.Code)
}
