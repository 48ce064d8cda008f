package server

import (
	"encoding/json"
	"strconv"
	"testing"

	"showcase/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser_FirstLogin(t *testing.T) {
	a := newTestApp(t)
	token := signedToken(t, 7001, "jti-first-login")

	// The provider knows the subject but the showcase does not yet.
	assert.Equal(t, fiber.StatusUnauthorized, a.do(t, fiber.MethodGet, "/api/me", token, nil, nil))

	var body models.ErrorResponse
	status := a.do(t, fiber.MethodPost, "/api/users", token, map[string]any{"email": "nope"}, &body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)

	var created MeResponse
	status = a.do(t, fiber.MethodPost, "/api/users", token, map[string]any{
		"email":      "gudrun@example.is",
		"kennitala":  "0101302989",
		"first_name": "Guðrún",
		"last_name":  "Jónsdóttir",
	}, &created)
	require.Equal(t, fiber.StatusCreated, status)
	require.NotNil(t, created.User)
	assert.Equal(t, uint(7001), created.User.ID)
	assert.False(t, created.IsAdmin)

	var me MeResponse
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/me", token, nil, &me))
	assert.Equal(t, "gudrun@example.is", me.User.Email)

	status = a.do(t, fiber.MethodPost, "/api/users", token, map[string]any{"email": "other@example.is"}, &body)
	assert.Equal(t, fiber.StatusConflict, status)

	status = a.do(t, fiber.MethodPost, "/api/users", "", map[string]any{"email": "anon@example.is"}, &body)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Authorization required", body.Error)

	require.NoError(t, a.redis.Set("blacklist:jti-revoked-signup", "1"))
	status = a.do(t, fiber.MethodPost, "/api/users", signedToken(t, 7002, "jti-revoked-signup"),
		map[string]any{"email": "late@example.is"}, &body)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", body.Error)
}

func TestGetUserProfile(t *testing.T) {
	a := newTestApp(t)
	u := a.user(t, true)
	require.NoError(t, a.db.Model(u).Update("info", "Designer and Go developer").Error)

	var raw json.RawMessage
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/users/"+strconv.FormatUint(uint64(u.ID), 10), "", nil, &raw))

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.ElementsMatch(t, []string{"id", "first_name", "last_name", "info"}, keys(fields))
	assert.Equal(t, "Designer and Go developer", fields["info"])

	assert.Equal(t, fiber.StatusNotFound, a.do(t, fiber.MethodGet, "/api/users/999999", "", nil, nil))
	assert.Equal(t, fiber.StatusBadRequest, a.do(t, fiber.MethodGet, "/api/users/abc", "", nil, nil))

	require.NoError(t, a.db.Model(u).Update("is_active", false).Error)
	assert.Equal(t, fiber.StatusNotFound, a.do(t, fiber.MethodGet, "/api/users/"+strconv.FormatUint(uint64(u.ID), 10), "", nil, nil))
}

func TestGetProject_PublicPayload(t *testing.T) {
	a := newTestApp(t)
	owner := a.user(t, false)
	admin := a.user(t, true)

	project := a.createProject(t, owner, map[string]any{"website_url": "https://github.com/acme/gizmo"})
	projectID := project.ID.String()
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodPost, "/api/admin/projects/"+projectID+"/approve", tokenFor(t, admin), nil, nil))

	competitionBody := map[string]any{
		"name":       "Vefverðlaun 2026",
		"start_date": "2026-01-01T00:00:00Z",
		"end_date":   "2026-12-31T00:00:00Z",
		"status":     "accepting_applications",
	}
	var competition models.Competition
	require.Equal(t, fiber.StatusCreated, a.do(t, fiber.MethodPost, "/api/admin/competitions", tokenFor(t, admin), competitionBody, &competition))
	competitionPath := "/api/admin/competitions/" + competition.ID.String()
	status := a.do(t, fiber.MethodPost, competitionPath+"/projects", tokenFor(t, admin), map[string]any{"project_id": projectID}, nil)
	require.Less(t, status, 300)

	competitionBody["winner_id"] = projectID
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodPut, competitionPath, tokenFor(t, admin), competitionBody, nil))

	var raw json.RawMessage
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/projects/"+projectID, "", nil, &raw))
	assert.NotContains(t, string(raw), owner.Email)
	assert.NotContains(t, string(raw), "is_staff")
	assert.NotContains(t, string(raw), "is_superuser")

	var payload struct {
		Owner           map[string]any `json:"owner"`
		WonCompetitions []struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"won_competitions"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.ElementsMatch(t, []string{"id", "first_name", "last_name", "info"}, keys(payload.Owner))
	require.Len(t, payload.WonCompetitions, 1)
	assert.Equal(t, competition.Name, payload.WonCompetitions[0].Name)
	assert.Equal(t, competition.Slug, payload.WonCompetitions[0].Slug)

	var list projectList
	require.Equal(t, fiber.StatusOK, a.do(t, fiber.MethodGet, "/api/projects", "", nil, &list))
	require.Len(t, list.Projects, 1)
	require.NotNil(t, list.Projects[0].Owner)
	assert.Equal(t, owner.ID, list.Projects[0].Owner.ID)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
