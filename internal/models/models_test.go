package models

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	var p struct {
		DOB *Date `json:"date_of_birth"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date_of_birth":"1990-04-17"}`), &p))
	require.NotNil(t, p.DOB)
	assert.Equal(t, 1990, p.DOB.Year())
	assert.Equal(t, time.April, p.DOB.Month())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date_of_birth":"1990-04-17"}`, string(out))
}

func TestDate_RejectsBadLayout(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"17/04/1990"`), &d))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2001-02-03T00:00:00Z"))
	assert.Equal(t, "2001-02-03", d.String())

	require.NoError(t, d.Scan(time.Date(2010, 5, 6, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2010-05-06", d.String())

	assert.Error(t, d.Scan(42))
}

func TestAppError_Status(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewUnauthorizedError("who"), http.StatusUnauthorized},
		{NewForbiddenError("no"), http.StatusForbidden},
		{NewNotFoundError("Post", 1), http.StatusNotFound},
		{NewConflictError("dup"), http.StatusConflict},
		{NewInternalError(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.Status(), tt.err.Code)
	}
}

func TestIsCode_Wrapped(t *testing.T) {
	err := errors.Join(errors.New("context"), NewConflictError("dup"))
	assert.True(t, IsCode(err, CodeConflict))
	assert.False(t, IsCode(err, CodeNotFound))
}

func TestPost_Decorate(t *testing.T) {
	uid := uint(2)
	p := Post{
		Author: &User{ID: 1, Username: "alice", Profile: &Profile{ProfilePicture: "/media/profile/a.webp"}},
		Comments: []Comment{
			{ID: 1, AuthorID: &uid, Author: &User{ID: 2, Username: "bob"}},
			{ID: 2},
		},
	}
	p.Decorate()

	assert.Equal(t, "alice", p.AuthorName)
	assert.Equal(t, "/media/profile/a.webp", p.AuthorProfilePicture)
	assert.Equal(t, "bob", p.Comments[0].AuthorName)
	assert.Empty(t, p.Comments[1].AuthorName)
	assert.NotNil(t, p.Tags)
}

func TestChat_DecorateAndMembership(t *testing.T) {
	c := Chat{Participants: []User{{ID: 3}, {ID: 7}}}
	c.Decorate()
	assert.Equal(t, []uint{3, 7}, c.ParticipantIDs)
	assert.True(t, c.HasParticipant(7))
	assert.False(t, c.HasParticipant(9))
}

func TestProfile_Decorate(t *testing.T) {
	p := &Profile{User: &User{Username: "carol", Email: "carol@example.com"}}
	p.Decorate()
	assert.Equal(t, "carol", p.Name)
	assert.Equal(t, "carol@example.com", p.Email)

	var nilProfile *Profile
	assert.NotPanics(t, nilProfile.Decorate)
}

func TestNewFieldsError(t *testing.T) {
	err := NewFieldsError(map[string]string{"password": "Passwords must match.", "email": "invalid email format"})
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "invalid email format", err.Message)
	assert.Len(t, err.Fields, 2)
}
