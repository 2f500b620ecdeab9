package view

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var test_data = PageData{
	AllowedExtensions: []string{"png", "jpg"},
	MaxUploadSize:     "16 MiB",
	ResultsEnabled:    true,
}

func TestRenderEmbeddedPages(t *testing.T) {
	v, err := New(test_data)
	require.NoError(t, err)

	for _, page := range ALL_PAGES {
		t.Run(string(page), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, v.Render(&buf, page))
			assert.Contains(t, buf.String(), "<!DOCTYPE html>")
		})
	}
}

func TestRenderHomeShowsLimits(t *testing.T) {
	v, err := New(test_data)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf, HOME))

	body := buf.String()
	assert.Contains(t, body, `accept=".png,.jpg"`)
	assert.Contains(t, body, "png, jpg")
	assert.Contains(t, body, "16 MiB")
	assert.Contains(t, body, `href="/results"`)
}

func TestRenderHomeWithoutResults(t *testing.T) {
	data := test_data
	data.ResultsEnabled = false

	v, err := New(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf, HOME))
	assert.NotContains(t, buf.String(), `href="/results"`)
}

func TestMissingTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/index.html":   {Data: []byte("home")},
		"templates/capture.html": {Data: []byte("capture")},
	}

	_, err := NewFromFS(fsys, "templates/*.html", test_data)
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	// fine when results is not required
	_, err = NewFromFS(fsys, "templates/*.html", test_data, HOME, CAPTURE)
	assert.NoError(t, err)
}

func TestNoTemplates(t *testing.T) {
	_, err := NewFromFS(fstest.MapFS{}, "templates/*.html", test_data)
	assert.Error(t, err)
}
