package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"social/internal/authz"
	"social/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator map[string]authz.Actor

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (authz.Actor, error) {
	actor, ok := s[token]
	if !ok {
		return authz.Actor{}, models.NewUnauthorizedError("Given token not valid for any token type")
	}
	return actor, nil
}

func TestAuthRequired(t *testing.T) {
	auth := stubAuthenticator{
		"good-token": {ID: 123, Username: "alice"},
		"staff":      {ID: 7, Username: "moderator", IsStaff: true},
	}

	app := fiber.New()
	app.Get("/test", AuthRequired(auth), func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		ctxUserID, _ := c.UserContext().Value(UserIDKey).(uint)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"userID":    c.Locals("userID"),
			"ctxUserID": ctxUserID,
			"username":  actor.Username,
			"staff":     actor.IsStaff,
		})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
		expectedStaff  bool
	}{
		{
			name:           "Happy Path",
			authHeader:     "Bearer good-token",
			expectedStatus: http.StatusOK,
			expectedUserID: 123,
		},
		{
			name:           "Case Insensitive Scheme",
			authHeader:     "bearer staff",
			expectedStatus: http.StatusOK,
			expectedUserID: 7,
			expectedStaff:  true,
		},
		{
			name:           "Missing Header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Format",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Too Many Parts",
			authHeader:     "Bearer good-token extra",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Unknown Token",
			authHeader:     "Bearer malformed.token.here",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, models.CodeUnauthorized, body["code"])
				assert.NotEmpty(t, body["error"])
				return
			}
			assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			assert.Equal(t, float64(tt.expectedUserID), body["ctxUserID"])
			assert.Equal(t, tt.expectedStaff, body["staff"])
		})
	}
}

func TestActorFromWithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": ActorFrom(c).ID})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/anon", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(0), body["id"])
}
