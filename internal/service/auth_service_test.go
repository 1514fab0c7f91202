package service

import (
	"context"
	"errors"
	"testing"

	"social/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration(username string) RegisterInput {
	return RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "Str0ng-enough!",
		Password2: "Str0ng-enough!",
	}
}

func TestAuthService_RegisterDefersProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, validRegistration("alice"))
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.NotEqual(t, "Str0ng-enough!", user.Password)

	var profiles int64
	require.NoError(t, f.db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Count(&profiles).Error)
	assert.Zero(t, profiles, "registration does not create a profile")

	_, err = f.profiles.Me(ctx, actorOf(user))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)
}

func TestAuthService_RegisterPasswordMismatch(t *testing.T) {
	f := newFixture(t)
	in := validRegistration("alice")
	in.Password2 = "Different-pass1!"

	_, err := f.auth.Register(context.Background(), in)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, "Passwords must match.", appErr.Fields["password"])
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, validRegistration("alice"))
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, validRegistration("alice"))
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestAuthService_ObtainRefreshRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, validRegistration("alice"))
	require.NoError(t, err)

	_, err = f.auth.Obtain(ctx, LoginInput{Username: "alice", Password: "wrong"})
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
	_, err = f.auth.Obtain(ctx, LoginInput{Username: "nobody", Password: "Str0ng-enough!"})
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	pair, err := f.auth.Obtain(ctx, LoginInput{Username: "alice", Password: "Str0ng-enough!"})
	require.NoError(t, err)

	access, err := f.auth.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	actor, err := f.tokens.Authenticate(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.Username)

	_, err = f.auth.Refresh(ctx, pair.Access)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized), "access token is not a refresh token")

	require.NoError(t, f.auth.Revoke(ctx, pair.Refresh))
	_, err = f.auth.Refresh(ctx, pair.Refresh)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestAuthService_RefreshPicksUpStaffChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, validRegistration("alice"))
	require.NoError(t, err)
	pair, err := f.auth.Obtain(ctx, LoginInput{Username: "alice", Password: "Str0ng-enough!"})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.User{}).Where("username = ?", "alice").Update("is_staff", true).Error)

	access, err := f.auth.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	actor, err := f.tokens.Authenticate(ctx, access)
	require.NoError(t, err)
	assert.True(t, actor.IsStaff)
}
