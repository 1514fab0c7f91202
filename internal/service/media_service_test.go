package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"social/internal/authz"
	"social/internal/config"
	"social/internal/models"
	"social/internal/repository"
	"social/internal/testutil"

	"golang.org/x/image/webp"
)

func newMediaService(t *testing.T, maxMB int) (*MediaService, *config.Config) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{MediaDir: t.TempDir(), MediaURLPrefix: "/media/", MediaMaxUploadMB: maxMB}
	return NewMediaService(repository.NewMediaRepository(db), cfg), cfg
}

func TestMediaServiceUploadStoresWebPOnce(t *testing.T) {
	svc, cfg := newMediaService(t, 1)
	actor := authz.Actor{ID: 42, Username: "alice"}

	content := testutil.TinyPNG(t, 1200, 800)
	m, err := svc.Upload(context.Background(), actor, UploadMediaInput{
		Kind:        "post",
		Filename:    "photo.png",
		ContentType: "image/png",
		Content:     content,
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if m.ID == 0 || len(m.Hash) != 64 {
		t.Fatalf("expected persisted media metadata, got %+v", m)
	}
	if want := "/media/post/" + m.Hash + ".webp"; m.URL != want {
		t.Fatalf("expected url %q, got %q", want, m.URL)
	}
	if m.MimeType != "image/webp" || m.OwnerID != 42 {
		t.Fatalf("unexpected media row %+v", m)
	}

	path := filepath.Join(cfg.MediaDir, "post", m.Hash+".webp")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
	cfgImg, err := webp.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("stored file is not webp: %v", err)
	}
	if cfgImg.Width != 1200 || cfgImg.Height != 800 {
		t.Fatalf("expected 1200x800, got %dx%d", cfgImg.Width, cfgImg.Height)
	}

	again, err := svc.Upload(context.Background(), actor, UploadMediaInput{Kind: "post", Content: content})
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}
	if again.ID != m.ID {
		t.Fatalf("expected same media row %d, got %d", m.ID, again.ID)
	}
}

func TestMediaServiceFitsLargeImages(t *testing.T) {
	svc, _ := newMediaService(t, 20)

	m, err := svc.Upload(context.Background(), authz.Actor{ID: 1}, UploadMediaInput{
		Kind:    "profile",
		Content: testutil.TinyPNG(t, 4096, 2048),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if m.Width != MediaMaxSize || m.Height != MediaMaxSize/2 {
		t.Fatalf("expected %dx%d, got %dx%d", MediaMaxSize, MediaMaxSize/2, m.Width, m.Height)
	}
}

func TestMediaServiceUploadValidation(t *testing.T) {
	svc, _ := newMediaService(t, 1)
	actor := authz.Actor{ID: 1}
	ctx := context.Background()

	cases := []struct {
		name  string
		in    UploadMediaInput
		field string
	}{
		{"unknown kind", UploadMediaInput{Kind: "avatar", Content: testutil.TinyPNG(t, 4, 4)}, "kind"},
		{"empty file", UploadMediaInput{Kind: "post"}, "file"},
		{"not an image", UploadMediaInput{Kind: "post", Content: []byte("plain text, not pixels")}, "file"},
		{"type mismatch", UploadMediaInput{Kind: "post", ContentType: "image/gif", Content: testutil.TinyPNG(t, 4, 4)}, "file"},
		{"too large", UploadMediaInput{Kind: "post", Content: append(testutil.TinyPNG(t, 4, 4), bytes.Repeat([]byte{0}, 2*1024*1024)...)}, "file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, actor, tc.in)
			var appErr *models.AppError
			if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := appErr.Fields[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.field, appErr.Fields)
			}
		})
	}

	if _, err := svc.Upload(ctx, authz.Actor{}, UploadMediaInput{Kind: "post"}); !models.IsCode(err, models.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for anonymous upload, got %v", err)
	}
}

func TestMediaServiceURLIsRelative(t *testing.T) {
	svc := NewMediaService(nil, &config.Config{MediaURLPrefix: "uploads"})
	url := svc.URL("chat/abc.webp")
	if !strings.HasPrefix(url, "/uploads/") {
		t.Fatalf("expected relative url under /uploads/, got %q", url)
	}
	if url != "/uploads/chat/abc.webp" {
		t.Fatalf("unexpected url %q", url)
	}
}
