package bootstrap

import (
	"testing"

	"social/internal/config"
	"social/internal/models"
	"social/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDevStaff(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{
		Env:               "development",
		DevBootstrapStaff: true,
		DevStaffUsername:  "root",
		DevStaffEmail:     "Root@Example.com",
		DevStaffPassword:  "Str0ng-enough!",
	}

	require.NoError(t, EnsureDevStaff(cfg, db))
	require.NoError(t, EnsureDevStaff(cfg, db), "second run is a no-op")

	var users []models.User
	require.NoError(t, db.Where("username = ?", "root").Find(&users).Error)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsStaff)
	assert.Equal(t, "root@example.com", users[0].Email)

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", users[0].ID).Count(&profiles).Error)
	assert.Zero(t, profiles, "profiles are created on first access")
}

func TestEnsureDevStaff_PromotesExistingUser(t *testing.T) {
	db := testutil.NewDB(t)
	existing := testutil.CreateUser(t, db, "alice", false)
	cfg := &config.Config{Env: "development", DevBootstrapStaff: true, DevStaffUsername: "alice", DevStaffPassword: "x"}

	require.NoError(t, EnsureDevStaff(cfg, db))

	var user models.User
	require.NoError(t, db.First(&user, existing.ID).Error)
	assert.True(t, user.IsStaff)
}

func TestEnsureDevStaff_Skipped(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, EnsureDevStaff(&config.Config{Env: "production", DevBootstrapStaff: true}, db))
	require.NoError(t, EnsureDevStaff(&config.Config{Env: "development"}, db))
	assert.Error(t, EnsureDevStaff(&config.Config{Env: "development", DevBootstrapStaff: true}, db), "password is required")

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
