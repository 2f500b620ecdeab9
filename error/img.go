package error

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	// Upload
	ErrNoFilePart        error = errors.New("No file part")
	ErrNoSelectedFile    error = errors.New("No selected file")
	ErrInvalidFileName   error = errors.New("Invalid file name")
	ErrUploadUnavailable error = errors.New("could not process upload")

	// Processing
	ErrUnsupportedImageFormat error = errors.New("unsupported or corrupt image data")
	ErrEmptyImage             error = errors.New("image has no pixels")
	ErrImageTooLarge          error = errors.New("image dimensions too large")

	// Download
	ErrFileNotFound error = errors.New("file not found")
)

func FileTypeNotAllowed(allowed []string) error {
	return fmt.Errorf("File type not allowed. Allowed types: %s", strings.Join(allowed, ", "))
}

func UploadExceedsLimit(limit int64) error {
	return fmt.Errorf("upload too large (max %s)", humanize.IBytes(uint64(limit)))
}

func ImageExceedsPixelLimit(width, height int, limit int64) error {
	return fmt.Errorf(
		"%w (%dx%d, max %s pixels)",
		ErrImageTooLarge,
		width,
		height,
		humanize.Comma(limit),
	)
}
