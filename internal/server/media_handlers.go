package server

import (
	"io"

	"social/internal/middleware"
	"social/internal/models"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// MediaUploadResponse is the API response after uploading an image.
type MediaUploadResponse struct {
	ID        uint   `json:"id"`
	Kind      string `json:"kind"`
	Hash      string `json:"hash"`
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

// UploadMedia handles POST /api/v1/media
// @Summary Upload an image for a post, profile or chat
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image (jpeg, png, gif or webp)"
// @Param kind formData string true "post, profile or chat"
// @Success 201 {object} MediaUploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /media [post]
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError("file", "No file was submitted."))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError("file", "Unable to read uploaded file."))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError("file", "Unable to read uploaded file."))
	}

	media, err := s.mediaService.Upload(c.UserContext(), middleware.ActorFrom(c), service.UploadMediaInput{
		Kind:        c.FormValue("kind"),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(MediaUploadResponse{
		ID:        media.ID,
		Kind:      media.Kind,
		Hash:      media.Hash,
		URL:       media.URL,
		Width:     media.Width,
		Height:    media.Height,
		SizeBytes: media.SizeBytes,
		MimeType:  media.MimeType,
	})
}
