package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
)

//go:embed templates/*.html
var templates_fs embed.FS

type Page string

const (
	HOME    Page = "index.html"
	CAPTURE Page = "capture.html"
	RESULTS Page = "results.html"
)

var ALL_PAGES = []Page{HOME, CAPTURE, RESULTS}

// Values every page may show; fixed for the lifetime of the process.
type PageData struct {
	AllowedExtensions []string
	MaxUploadSize     string
	ResultsEnabled    bool
}

func (d PageData) Accept() string {
	exts := make([]string, len(d.AllowedExtensions))
	for i, ext := range d.AllowedExtensions {
		exts[i] = "." + ext
	}
	return strings.Join(exts, ",")
}

type Views struct {
	tmpl *template.Template
	data PageData
}

// New parses the embedded templates. With no pages given, every page must
// be present.
func New(data PageData, pages ...Page) (*Views, error) {
	return NewFromFS(templates_fs, "templates/*.html", data, pages...)
}

// NewFromFS parses every template matching pattern and fails if any page in
// pages is missing.
func NewFromFS(fsys fs.FS, pattern string, data PageData, pages ...Page) (*Views, error) {
	if len(pages) == 0 {
		pages = ALL_PAGES
	}

	tmpl, err := template.ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("could not parse templates: %w", err)
	}

	for _, page := range pages {
		if tmpl.Lookup(string(page)) == nil {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, page)
		}
	}

	return &Views{tmpl: tmpl, data: data}, nil
}

// Render executes page into a buffer first so a failing template never
// leaves a half-written response.
func (v *Views) Render(w io.Writer, page Page) error {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, string(page), v.data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
