package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	e "github.com/julianlk522/snapsquare/error"
	util "github.com/julianlk522/snapsquare/handler/util"
	"github.com/julianlk522/snapsquare/model"
)

const UPLOAD_FORM_FIELD = "file"

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// keep the whole (already capped) body in memory
	if err := r.ParseMultipartForm(h.cfg.Upload.MaxBytes); err != nil {
		var max_err *http.MaxBytesError
		switch {
		case errors.As(err, &max_err):
			render.Render(w, r, e.ErrContentTooLarge(e.UploadExceedsLimit(h.cfg.Upload.MaxBytes)))
		default:
			// not multipart or malformed: either way there is no file part
			log.Debug().Err(err).Msg("could not parse multipart form")
			render.Render(w, r, e.ErrInvalidRequest(e.ErrNoFilePart))
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(UPLOAD_FORM_FIELD)
	if err != nil {
		// a part with an empty filename is parsed as a plain value
		if _, ok := r.MultipartForm.Value[UPLOAD_FORM_FIELD]; ok {
			render.Render(w, r, e.ErrInvalidRequest(e.ErrNoSelectedFile))
		} else {
			render.Render(w, r, e.ErrInvalidRequest(e.ErrNoFilePart))
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		render.Render(w, r, e.ErrInvalidRequest(e.ErrNoSelectedFile))
		return
	}

	if !util.HasAllowedExtension(header.Filename, h.cfg.Upload.AllowedExtensions) {
		render.Render(w, r, e.ErrInvalidRequest(e.FileTypeNotAllowed(h.cfg.Upload.AllowedExtensions)))
		return
	}

	file_name := util.SanitizeFileName(header.Filename)
	if file_name == "" {
		render.Render(w, r, e.ErrInvalidRequest(e.ErrInvalidFileName))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.renderProcessingErr(w, r, err)
		return
	}

	upload := &model.UploadRequest{
		Bytes:               data,
		FileName:            header.Filename,
		ContentType:         header.Header.Get("Content-Type"),
		DetectedContentType: mimetype.Detect(data).String(),
	}
	log.Debug().
		Str("file_name", upload.FileName).
		Str("content_type", upload.ContentType).
		Str("detected_content_type", upload.DetectedContentType).
		Int("bytes", len(upload.Bytes)).
		Msg("received upload")

	stored, err := h.processor.Process(upload, file_name)
	if err != nil {
		h.renderProcessingErr(w, r, err)
		return
	}

	if err := h.store.Save(stored.FileName, stored.Bytes); err != nil {
		h.renderProcessingErr(w, r, err)
		return
	}

	render.Render(w, r, model.NewUploadResponse(stored.FileName))
}

func (h *Handler) renderProcessingErr(w http.ResponseWriter, r *http.Request, err error) {
	if !h.cfg.Upload.ExposeErrors {
		render.Render(w, r, e.ErrInternalServerErrorMasked(err, e.ErrUploadUnavailable))
		return
	}
	render.Render(w, r, e.ErrInternalServerError(err))
}
