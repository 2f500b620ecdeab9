package middleware

import (
	"net/http"

	"github.com/go-chi/render"

	e "github.com/julianlk522/snapsquare/error"
)

// LimitBody rejects requests that declare a body larger than max_bytes before
// the handler runs, and caps the reader for those that don't declare one
// (chunked). Handlers see *http.MaxBytesError once the cap is hit.
func LimitBody(max_bytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max_bytes {
				render.Render(w, r, e.ErrContentTooLarge(e.UploadExceedsLimit(max_bytes)))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, max_bytes)
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
