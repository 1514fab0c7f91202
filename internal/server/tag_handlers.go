package server

import (
	"social/internal/middleware"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TagRequest is the writable part of a tag. A missing slug is derived from
// the title.
type TagRequest struct {
	Title *string `json:"title"`
	Slug  *string `json:"slug"`
}

func (r TagRequest) input() service.TagInput {
	return service.TagInput{Title: r.Title, Slug: r.Slug}
}

// ListTags handles GET /api/v1/tags
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Security BearerAuth
// @Router /tags [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	page := parsePagination(c, maxPaginationLimit)
	tags, err := s.tagService.ListTags(c.UserContext(), middleware.ActorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tags)
}

// CreateTag handles POST /api/v1/tags
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param body body TagRequest true "Tag"
// @Success 201 {object} models.Tag
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tags [post]
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var req TagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	tag, err := s.tagService.CreateTag(c.UserContext(), middleware.ActorFrom(c), req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// GetTag handles GET /api/v1/tags/:id
// @Summary Retrieve a tag
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} models.Tag
// @Security BearerAuth
// @Router /tags/{id} [get]
func (s *Server) GetTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	tag, err := s.tagService.GetTag(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tag)
}

// ReplaceTag handles PUT /api/v1/tags/:id (staff only)
// @Summary Replace a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param body body TagRequest true "Tag"
// @Success 200 {object} models.Tag
// @Security BearerAuth
// @Router /tags/{id} [put]
func (s *Server) ReplaceTag(c *fiber.Ctx) error {
	return s.updateTag(c, true)
}

// PatchTag handles PATCH /api/v1/tags/:id (staff only)
// @Summary Partially update a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param body body TagRequest true "Fields to change"
// @Success 200 {object} models.Tag
// @Security BearerAuth
// @Router /tags/{id} [patch]
func (s *Server) PatchTag(c *fiber.Ctx) error {
	return s.updateTag(c, false)
}

func (s *Server) updateTag(c *fiber.Ctx, replace bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req TagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	tag, err := s.tagService.UpdateTag(c.UserContext(), middleware.ActorFrom(c), id, req.input(), replace)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tag)
}

// DeleteTag handles DELETE /api/v1/tags/:id (staff only)
// @Summary Delete a tag
// @Tags tags
// @Param id path int true "Tag ID"
// @Success 204
// @Security BearerAuth
// @Router /tags/{id} [delete]
func (s *Server) DeleteTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.tagService.DeleteTag(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
