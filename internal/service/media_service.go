package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"social/internal/authz"
	"social/internal/config"
	"social/internal/models"
	"social/internal/observability"
	"social/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaDir         = "./media"
	DefaultMediaURLPrefix   = "/media"
	DefaultMediaMaxUploadMB = 10
	MediaMaxSize            = 2048
	WebPQuality             = 80
)

// Media kinds accepted by Upload. Each kind has its own directory.
const (
	MediaKindPost    = "post"
	MediaKindProfile = "profile"
	MediaKindChat    = "chat"
)

type UploadMediaInput struct {
	Kind        string
	Filename    string
	ContentType string
	Content     []byte
}

// MediaService stores uploaded images once: fitted to MediaMaxSize, encoded
// as WebP and addressed by the SHA-256 of the encoded bytes.
type MediaService struct {
	repo               repository.MediaRepository
	dir                string
	urlPrefix          string
	maxUploadSizeBytes int64
	log                *observability.ServiceLogger
}

func NewMediaService(repo repository.MediaRepository, cfg *config.Config) *MediaService {
	dir := DefaultMediaDir
	urlPrefix := DefaultMediaURLPrefix
	maxUploadSizeMB := DefaultMediaMaxUploadMB

	if cfg != nil {
		if cfg.MediaDir != "" {
			dir = cfg.MediaDir
		}
		if cfg.MediaURLPrefix != "" {
			urlPrefix = cfg.MediaURLPrefix
		}
		if cfg.MediaMaxUploadMB > 0 {
			maxUploadSizeMB = cfg.MediaMaxUploadMB
		}
	}

	return &MediaService{
		repo:               repo,
		dir:                dir,
		urlPrefix:          "/" + strings.Trim(urlPrefix, "/"),
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		log:                observability.NewServiceLogger("media"),
	}
}

// Upload validates, normalizes and stores an image, returning its media row
// with URL set. Uploading identical content twice returns the same row.
func (s *MediaService) Upload(ctx context.Context, actor authz.Actor, in UploadMediaInput) (m *models.Media, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "MediaService", "Upload")
	defer func() { observability.EndSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, models.NewUnauthorizedError("Authentication credentials were not provided.")
	}
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if !isMediaKind(kind) {
		return nil, models.NewFieldError("kind", "Kind must be one of post, profile, chat.")
	}
	if len(in.Content) == 0 {
		return nil, models.NewFieldError("file", "No file was submitted.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewFieldError("file", fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewFieldError("file", "Invalid image type")
	}
	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewFieldError("file", "Invalid image file")
	}
	sourceMimeType := decodedFormatToMime(format)
	if sourceMimeType == "" {
		return nil, models.NewFieldError("file", "Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, models.NewFieldError("file", "Image content type mismatch")
	}

	fitted := resizeToFit(decoded, MediaMaxSize, MediaMaxSize)
	encoded, err := encodeWebP(fitted, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	sum := sha256.Sum256(encoded)
	hash := hex.EncodeToString(sum[:])

	rel := path.Join(kind, hash+".webp")
	abs := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := writeBytesToFile(abs, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	bounds := fitted.Bounds()
	m = &models.Media{
		Hash:      hash,
		Kind:      kind,
		OwnerID:   actor.ID,
		Path:      rel,
		MimeType:  "image/webp",
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		SizeBytes: int64(len(encoded)),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, models.NewInternalError(err)
	}
	m.URL = s.URL(m.Path)
	s.log.Info(ctx, "media stored", "media_id", m.ID, "kind", kind, "bytes", m.SizeBytes)
	return m, nil
}

// URL maps a stored relative path to its public URL.
func (s *MediaService) URL(rel string) string {
	return s.urlPrefix + "/" + strings.TrimPrefix(rel, "/")
}

// Dir is the directory media files are written to.
func (s *MediaService) Dir() string {
	return s.dir
}

// URLPrefix is the path media files are served under.
func (s *MediaService) URLPrefix() string {
	return s.urlPrefix
}

func isMediaKind(kind string) bool {
	switch kind {
	case MediaKindPost, MediaKindProfile, MediaKindChat:
		return true
	default:
		return false
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
