package model

import (
	"net/http"

	"github.com/go-chi/render"
)

// Lives only for the duration of one POST /upload.
type UploadRequest struct {
	Bytes               []byte
	FileName            string // as claimed by the client
	ContentType         string // as claimed by the client
	DetectedContentType string
}

// A processed upload ready to be written under its sanitized name.
type StoredImage struct {
	FileName string
	Bytes    []byte
}

type UploadResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"filename"`
	FilePath string `json:"filepath"`
}

func (ur *UploadResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusOK)
	return nil
}

func NewUploadResponse(file_name string) *UploadResponse {
	return &UploadResponse{
		Success:  true,
		FileName: file_name,
		FilePath: "/uploads/" + file_name,
	}
}
