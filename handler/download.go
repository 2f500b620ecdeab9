package handler

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	e "github.com/julianlk522/snapsquare/error"
	util "github.com/julianlk522/snapsquare/handler/util"
)

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	var file_name string = chi.URLParam(r, "file_name")
	if unescaped, err := url.PathUnescape(file_name); err == nil {
		file_name = unescaped
	}

	// names may arrive here without ever passing through Upload
	file_name = util.SanitizeFileName(file_name)
	if file_name == "" {
		render.Render(w, r, e.ErrNotFound(e.ErrFileNotFound))
		return
	}

	f, info, err := h.store.Open(file_name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			render.Render(w, r, e.ErrNotFound(e.ErrFileNotFound))
		} else {
			render.Render(w, r, e.ErrInternalServerError(err))
		}
		return
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		render.Render(w, r, e.ErrInternalServerError(err))
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		render.Render(w, r, e.ErrInternalServerError(err))
		return
	}

	w.Header().Set("Content-Type", mtype.String())
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
