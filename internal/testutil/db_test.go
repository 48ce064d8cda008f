package testutil

import (
	"testing"

	"showcase/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db := NewSQLiteDB(t)
	a := CreateUser(t, db, true)
	b := CreateUser(t, db, false)

	assert.NotEqual(t, a.Email, b.Email)
	assert.True(t, a.IsAdmin())
	assert.False(t, b.IsAdmin())

	var n int64
	require.NoError(t, db.Model(&models.User{}).Where("is_active = ?", true).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}
