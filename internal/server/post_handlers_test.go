package server

import (
	"fmt"
	"net/http"
	"testing"

	"social/internal/cache"
	"social/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_AuthorIsCaller(t *testing.T) {
	e := newTestEnv(t)
	aliceID, alice := e.login(t, "alice", false)
	bobID, _ := e.login(t, "bob", false)

	var post models.Post
	status := e.do(t, http.MethodPost, "/api/v1/posts", alice, fiber.Map{
		"text":      "hello",
		"author_id": bobID,
		"author":    bobID,
	}, &post)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, aliceID, post.AuthorID)
	assert.Equal(t, "alice", post.AuthorName)
	assert.True(t, post.IsPublished)

	var stored models.Post
	require.NoError(t, e.db.First(&stored, post.ID).Error)
	assert.Equal(t, aliceID, stored.AuthorID)
}

func TestPostValidationErrorShape(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)

	var body models.ErrorResponse
	status := e.do(t, http.MethodPost, "/api/v1/posts", alice, fiber.Map{"location": "Kyiv"}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)
	assert.Equal(t, "This field is required.", body.Details["text"])
}

func TestPostUpdateAndDeleteRules(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)
	_, bob := e.login(t, "bob", false)
	_, staff := e.login(t, "moderator", true)

	var post models.Post
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/posts", alice, fiber.Map{"text": "original"}, &post))
	path := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPatch, path, bob, fiber.Map{"text": "mine now"}, nil))
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPut, path, alice, fiber.Map{"location": "Lviv"}, nil), "PUT requires text")

	var patched models.Post
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPatch, path, alice, fiber.Map{"location": "Lviv"}, &patched))
	assert.Equal(t, "original", patched.Text)
	assert.Equal(t, "Lviv", patched.Location)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodDelete, path, bob, nil, nil))
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, staff, nil, nil))
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, path, alice, nil, nil))
}

func TestListPostsFilters(t *testing.T) {
	e := newTestEnv(t)
	aliceID, alice := e.login(t, "alice", false)
	_, bob := e.login(t, "bob", false)

	var tag models.Tag
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/tags", alice, fiber.Map{"title": "Golang"}, &tag))
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/posts", alice, fiber.Map{"text": "Gophers unite", "tags": []uint{tag.ID}}, nil))
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/posts", bob, fiber.Map{"text": "cats"}, nil))
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/posts", alice, fiber.Map{"text": "secret gopher draft", "is_published": false}, nil))

	var posts []models.Post
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/posts?search=GOPHER", bob, nil, &posts))
	require.Len(t, posts, 1, "drafts of others are hidden")
	assert.Equal(t, "Gophers unite", posts[0].Text)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/posts?tag=golang", bob, nil, &posts))
	assert.Len(t, posts, 1)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts?author=%d", aliceID), alice, nil, &posts))
	assert.Len(t, posts, 2)

	var body models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/v1/posts?author=abc", alice, nil, &body))
	assert.Contains(t, body.Details, "author")
}

func TestGetPostIsCachedAndInvalidated(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)
	_, bob := e.login(t, "bob", false)

	var post models.Post
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/posts", alice, fiber.Map{"text": "cache me"}, &post))
	path := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, path, bob, nil, nil))
	assert.True(t, e.mr.Exists(cache.PostKey(post.ID)))

	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/comments", bob, fiber.Map{"post": post.ID, "text": "nice"}, nil))
	assert.False(t, e.mr.Exists(cache.PostKey(post.ID)))

	var got models.Post
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, path, alice, nil, &got))
	assert.Equal(t, int64(1), got.CommentsNum)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "bob", got.Comments[0].AuthorName)
}

func TestLikeEndpoints(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)
	bobID, bob := e.login(t, "bob", false)

	var post models.Post
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/posts", alice, fiber.Map{"text": "like me"}, &post))

	var like models.Like
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/likes", bob, fiber.Map{"post": post.ID, "author": 999}, &like))
	require.NotNil(t, like.AuthorID)
	assert.Equal(t, bobID, *like.AuthorID)

	var conflict models.ErrorResponse
	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/api/v1/likes", bob, fiber.Map{"post": post.ID}, &conflict))
	assert.Equal(t, models.CodeConflict, conflict.Code)

	var got models.Post
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), alice, nil, &got))
	assert.Equal(t, int64(1), got.LikesNum)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/v1/likes", bob, fiber.Map{}, nil))
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/likes/%d", like.ID), alice, nil, nil))
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/likes/%d", like.ID), bob, nil, nil))
}

func TestCommentEndpoints(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)
	bobID, bob := e.login(t, "bob", false)

	var post models.Post
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/posts", alice, fiber.Map{"text": "discuss"}, &post))

	var comment models.Comment
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/comments", bob, fiber.Map{"post": post.ID, "text": "first", "author": 1234}, &comment))
	require.NotNil(t, comment.AuthorID)
	assert.Equal(t, bobID, *comment.AuthorID)
	path := fmt.Sprintf("/api/v1/comments/%d", comment.ID)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPatch, path, alice, fiber.Map{"text": "edited"}, nil))

	var edited models.Comment
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPatch, path, bob, fiber.Map{"text": "edited"}, &edited))
	assert.True(t, edited.IsEdited)

	var comments []models.Comment
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/comments?post=%d", post.ID), alice, nil, &comments))
	assert.Len(t, comments, 1)

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, bob, nil, nil))
}

func TestTagEndpointsStaffOnlyWrites(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)
	_, staff := e.login(t, "moderator", true)

	var tag models.Tag
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/v1/tags", alice, fiber.Map{"title": "Привіт світ"}, &tag))
	assert.Equal(t, "pryvit-svit", tag.Slug)
	path := fmt.Sprintf("/api/v1/tags/%d", tag.ID)

	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/api/v1/tags", alice, fiber.Map{"title": "привіт світ"}, nil))
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPatch, path, alice, fiber.Map{"title": "x"}, nil))
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodDelete, path, alice, nil, nil))
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPatch, path, staff, fiber.Map{"title": "Hello"}, nil))
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, staff, nil, nil))
}

func TestInvalidRouteID(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)

	var body models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/v1/posts/abc", alice, nil, &body))
	assert.Equal(t, "Invalid ID", body.Error)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/v1/chats/0", alice, nil, nil))
}
