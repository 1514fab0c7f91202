package server

import (
	"social/internal/middleware"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostRequest is the writable part of a post. The author is always the caller.
type PostRequest struct {
	Text        *string `json:"text"`
	Image       *string `json:"image"`
	Location    *string `json:"location"`
	IsPublished *bool   `json:"is_published"`
	Tags        *[]uint `json:"tags"`
}

func (r PostRequest) input() service.PostInput {
	return service.PostInput{
		Text:        r.Text,
		Image:       r.Image,
		Location:    r.Location,
		IsPublished: r.IsPublished,
		TagIDs:      r.Tags,
	}
}

// ListPosts handles GET /api/v1/posts
// @Summary List posts
// @Tags posts
// @Produce json
// @Param search query string false "Text contains"
// @Param tag query string false "Tag slug or title"
// @Param author query int false "Author user ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Post
// @Security BearerAuth
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	authorID, err := queryID(c, "author")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageLimit)

	posts, err := s.postService.ListPosts(c.UserContext(), middleware.ActorFrom(c), service.ListPostsInput{
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
		AuthorID: authorID,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/v1/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param body body PostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req PostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), middleware.ActorFrom(c), req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/v1/posts/:id
// @Summary Retrieve a post with its comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// ReplacePost handles PUT /api/v1/posts/:id
// @Summary Replace a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param body body PostRequest true "Post"
// @Success 200 {object} models.Post
// @Security BearerAuth
// @Router /posts/{id} [put]
func (s *Server) ReplacePost(c *fiber.Ctx) error {
	return s.updatePost(c, true)
}

// PatchPost handles PATCH /api/v1/posts/:id
// @Summary Partially update a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param body body PostRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Security BearerAuth
// @Router /posts/{id} [patch]
func (s *Server) PatchPost(c *fiber.Ctx) error {
	return s.updatePost(c, false)
}

func (s *Server) updatePost(c *fiber.Ctx, replace bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req PostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), middleware.ActorFrom(c), id, req.input(), replace)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/v1/posts/:id
// @Summary Delete a post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
