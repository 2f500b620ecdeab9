package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/julianlk522/snapsquare/config"
	m "github.com/julianlk522/snapsquare/middleware"
)

func TestMain(t *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(t.Run())
}

func testConfig(t *testing.T, profile string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Profile = profile
	cfg.Upload.Dir = filepath.Join(t.TempDir(), "uploads")
	cfg.Server.RateLimitPerMinute = 0
	cfg.Views.Results = profile == config.PROFILE_STORE
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	h, err := New(cfg, afero.NewOsFs())
	require.NoError(t, err)

	f, err := m.NewSplitLogFormatter(zerolog.Nop(), "")
	require.NoError(t, err)

	return h.Router(f)
}

func multipartBody(t *testing.T, field string, file_name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, file_name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, router http.Handler, file_name string, data []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	body, content_type := multipartBody(t, "file", file_name, data)

	r := httptest.NewRequest(http.MethodPost, "/upload", body)
	r.Header.Set("Content-Type", content_type)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())

	return w, res
}

func download(router http.Handler, path string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func solidPNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
