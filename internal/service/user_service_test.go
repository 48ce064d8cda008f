package service

import (
	"context"
	"testing"

	"showcase/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.users.Register(ctx, RegisterUserInput{
		Email:     "anna@example.is",
		Kennitala: "0101302989",
		FirstName: " Anna ",
		LastName:  "Jónsdóttir",
	})
	require.NoError(t, err)
	assert.Equal(t, "Anna", u.FirstName)
	assert.True(t, u.IsActive)
	require.NotNil(t, u.Kennitala)

	sub, err := env.users.Register(ctx, RegisterUserInput{ID: 4242, Email: "sub@example.is"})
	require.NoError(t, err)
	assert.Equal(t, uint(4242), sub.ID)

	tests := []struct {
		name     string
		in       RegisterUserInput
		wantCode string
	}{
		{"missing email", RegisterUserInput{}, models.CodeValidation},
		{"duplicate email", RegisterUserInput{Email: "ANNA@example.is"}, models.CodeConflict},
		{"short kennitala", RegisterUserInput{Email: "b@example.is", Kennitala: "12345"}, models.CodeValidation},
		{"letters in kennitala", RegisterUserInput{Email: "b@example.is", Kennitala: "01013029x9"}, models.CodeValidation},
		{"duplicate kennitala", RegisterUserInput{Email: "c@example.is", Kennitala: "0101302989"}, models.CodeConflict},
		{"taken subject", RegisterUserInput{ID: 4242, Email: "d@example.is"}, models.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, models.ErrorCode(err))
		})
	}
}

func TestUserService_Admins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t)

	promoted, err := env.users.SetAdmin(ctx, u.Email, true)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	admins, err := env.users.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, u.ID, admins[0].ID)

	_, err = env.users.SetAdmin(ctx, u.Email, false)
	require.NoError(t, err)
	admins, err = env.users.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Empty(t, admins)

	_, err = env.users.SetAdmin(ctx, "nobody@example.is", true)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	active, err := env.users.GetActive(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, active.ID)
}

func TestUserService_GetProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t)
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", u.ID).Update("info", "Builds things in Reykjavík").Error)

	profile, err := env.users.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, profile.ID)
	assert.Equal(t, "Builds things in Reykjavík", profile.Info)

	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)
	_, err = env.users.GetProfile(ctx, u.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
