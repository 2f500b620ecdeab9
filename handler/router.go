package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	e "github.com/julianlk522/snapsquare/error"
	m "github.com/julianlk522/snapsquare/middleware"
)

func (h *Handler) Router(log_formatter *m.SplitLogFormatter) http.Handler {
	r := chi.NewRouter()

	// ROUTER-WIDE MIDDLEWARE
	r.Use(middleware.RequestID)

	// LOGGER
	// should go before any other middleware that may change
	// the response, such as middleware.Recoverer
	r.Use(m.SplitRequestLogger(log_formatter))
	r.Use(middleware.Recoverer)

	// RATE LIMIT
	// per minute (IP)
	if limit := h.cfg.Server.RateLimitPerMinute; limit > 0 {
		r.Use(httprate.Limit(
			limit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	// ROUTES
	// Views
	r.Get("/", h.Home)
	r.Get("/capture", h.Capture)
	if h.cfg.Views.Results {
		r.Get("/results", h.Results)
	}

	// Uploads
	r.
		With(m.LimitBody(h.cfg.Upload.MaxBytes)).
		Post("/upload", h.Upload)
	r.Get("/uploads/{file_name}", h.Download)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, e.ErrNotFound(e.ErrRouteNotFound))
	})

	return r
}
