package handler

import (
	"net/http"

	"github.com/go-chi/render"

	e "github.com/julianlk522/snapsquare/error"
	"github.com/julianlk522/snapsquare/view"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, view.HOME)
}

func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, view.CAPTURE)
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, view.RESULTS)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, page view.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.Render(w, page); err != nil {
		render.Render(w, r, e.ErrInternalServerError(err))
	}
}
