package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"social/internal/models"
	"social/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartImage(t *testing.T, kind string, content []byte) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if kind != "" {
		require.NoError(t, w.WriteField("kind", kind))
	}
	if content != nil {
		part, err := w.CreateFormFile("file", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), buf.Bytes()
}

func TestUploadMedia(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)

	contentType, body := multipartImage(t, "post", testutil.TinyPNG(t, 64, 32))
	resp := e.rawWithToken(t, http.MethodPost, "/api/v1/media", alice, contentType, body)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	var uploaded MediaUploadResponse
	require.NoError(t, resp.decode(&uploaded))
	assert.Equal(t, "post", uploaded.Kind)
	assert.Equal(t, "image/webp", uploaded.MimeType)
	assert.Equal(t, 64, uploaded.Width)
	assert.Equal(t, 32, uploaded.Height)
	assert.True(t, strings.HasPrefix(uploaded.URL, "/media/post/"), uploaded.URL)
	assert.True(t, strings.HasSuffix(uploaded.URL, ".webp"), uploaded.URL)

	served := e.raw(t, http.MethodGet, uploaded.URL, "", nil)
	assert.Equal(t, http.StatusOK, served.status)
	assert.EqualValues(t, uploaded.SizeBytes, len(served.body))

	again := e.rawWithToken(t, http.MethodPost, "/api/v1/media", alice, contentType, body)
	require.Equal(t, http.StatusCreated, again.status)
	var dup MediaUploadResponse
	require.NoError(t, again.decode(&dup))
	assert.Equal(t, uploaded.ID, dup.ID)
}

func TestUploadMediaRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)

	tests := []struct {
		name    string
		kind    string
		content []byte
		field   string
	}{
		{"Unknown Kind", "avatar", testutil.TinyPNG(t, 8, 8), "kind"},
		{"Missing File", "post", nil, "file"},
		{"Not An Image", "post", []byte("just some text"), "file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, body := multipartImage(t, tt.kind, tt.content)
			resp := e.rawWithToken(t, http.MethodPost, "/api/v1/media", alice, contentType, body)
			require.Equal(t, http.StatusBadRequest, resp.status)

			var errBody models.ErrorResponse
			require.NoError(t, resp.decode(&errBody))
			assert.Contains(t, errBody.Details, tt.field)
		})
	}

	contentType, body := multipartImage(t, "post", testutil.TinyPNG(t, 8, 8))
	assert.Equal(t, http.StatusUnauthorized, e.raw(t, http.MethodPost, "/api/v1/media", contentType, body).status)
}
