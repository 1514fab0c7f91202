package server

import (
	"fmt"
	"net/http"
	"testing"

	"social/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatConversationFlow(t *testing.T) {
	e := newTestEnv(t)
	annaID, anna := e.login(t, "anna", false)
	borysID, borys := e.login(t, "borys", false)
	_, chen := e.login(t, "chen", false)

	var chat models.Chat
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/chats", anna, fiber.Map{"participants": []uint{borysID}}, &chat))
	assert.Equal(t, "anna, borys", chat.Title)
	assert.ElementsMatch(t, []uint{annaID, borysID}, chat.ParticipantIDs)

	send := func(token, text string) {
		t.Helper()
		var msg models.Message
		require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/messages", token, fiber.Map{"chat": chat.ID, "text": text}, &msg))
		assert.Equal(t, chat.ID, msg.ChatID)
	}
	send(anna, "hi borys")
	send(borys, "hi anna")
	send(anna, "how are you?")

	var got models.Chat
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/chats/%d", chat.ID), borys, nil, &got))
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "hi borys", got.Messages[0].Text)
	assert.Equal(t, "hi anna", got.Messages[1].Text)
	assert.Equal(t, "how are you?", got.Messages[2].Text)
	assert.Equal(t, annaID, got.Messages[0].AuthorID)

	var msgs []models.Message
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages?chat=%d", chat.ID), anna, nil, &msgs))
	assert.Len(t, msgs, 3)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/chats/%d", chat.ID), chen, nil, nil))
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/api/v1/messages", chen, fiber.Map{"chat": chat.ID, "text": "let me in"}, nil))

	var chenChats []models.Chat
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/chats", chen, nil, &chenChats))
	assert.Empty(t, chenChats)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/messages", chen, nil, &msgs))
	assert.Empty(t, msgs)
}

func TestChatRequiresTwoParticipants(t *testing.T) {
	e := newTestEnv(t)
	annaID, anna := e.login(t, "anna", false)

	var body models.ErrorResponse
	status := e.do(t, http.MethodPost, "/api/v1/chats", anna, fiber.Map{"participants": []uint{annaID}}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)
	assert.NotEmpty(t, body.Details["participants"])

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/v1/chats", anna, fiber.Map{"participants": []uint{4242}}, nil))
}

func TestMessageCannotMoveBetweenChats(t *testing.T) {
	e := newTestEnv(t)
	_, anna := e.login(t, "anna", false)
	borysID, borys := e.login(t, "borys", false)

	var first, second models.Chat
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/chats", anna, fiber.Map{"participants": []uint{borysID}}, &first))
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/chats", anna, fiber.Map{"participants": []uint{borysID}, "title": "second"}, &second))

	var msg models.Message
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/messages", anna, fiber.Map{"chat": first.ID, "text": "original"}, &msg))
	path := fmt.Sprintf("/api/v1/messages/%d", msg.ID)

	var body models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPatch, path, anna, fiber.Map{"chat": second.ID}, &body))
	assert.Contains(t, body.Details, "chat")

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPatch, path, borys, fiber.Map{"text": "not mine"}, nil))

	var edited models.Message
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, path, anna, fiber.Map{"chat": first.ID, "text": "fixed"}, &edited))
	assert.Equal(t, "fixed", edited.Text)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, first.ID, edited.ChatID)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodDelete, path, borys, nil, nil))
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, anna, nil, nil))
}

func TestChatDeleteByParticipant(t *testing.T) {
	e := newTestEnv(t)
	_, anna := e.login(t, "anna", false)
	borysID, borys := e.login(t, "borys", false)

	var chat models.Chat
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/chats", anna, fiber.Map{"participants": []uint{borysID}}, &chat))
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/messages", anna, fiber.Map{"chat": chat.ID, "text": "bye"}, nil))

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/chats/%d", chat.ID), borys, nil, nil))

	var count int64
	require.NoError(t, e.db.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}
