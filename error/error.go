package error

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"
)

var ErrRouteNotFound error = errors.New("route not found")

type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
}

// Client errors are left to the request logger, which already records
// every 4xx; only server errors carry a cause worth logging here.
func (er *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if er.HTTPStatusCode >= http.StatusInternalServerError {
		log.Error().
			Err(er.Err).
			Int("status", er.HTTPStatusCode).
			Str("path", r.URL.Path).
			Msg(er.StatusText)
	}

	render.Status(r, er.HTTPStatusCode)
	return nil
}

// e.g., missing file field
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest, // 400
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrNotFound(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound, // 404
		StatusText:     "Resource not found.",
		ErrorText:      err.Error(),
	}
}

func ErrContentTooLarge(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusRequestEntityTooLarge, // 413
		StatusText:     "Content too large.",
		ErrorText:      err.Error(),
	}
}

func ErrInternalServerError(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError, // 500
		StatusText:     "Server failed to process request.",
		ErrorText:      err.Error(),
	}
}

// Logs err but tells the client only public.
func ErrInternalServerErrorMasked(err error, public error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError, // 500
		StatusText:     "Server failed to process request.",
		ErrorText:      public.Error(),
	}
}
