package handler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/julianlk522/snapsquare/config"
	e "github.com/julianlk522/snapsquare/error"
	"github.com/julianlk522/snapsquare/model"
)

const CANONICAL_EXTENSION = ".jpg"

// ImgProcessor turns a validated upload into the bytes that get stored.
type ImgProcessor interface {
	Process(upload *model.UploadRequest, file_name string) (*model.StoredImage, error)
}

func NewImgProcessor(cfg *config.Config) ImgProcessor {
	switch cfg.Profile {
	case config.PROFILE_STORE:
		return PassthroughProcessor{}
	default:
		return &NormalizeProcessor{
			Size:      cfg.Image.Size,
			Quality:   cfg.Image.Quality,
			MaxPixels: cfg.Image.MaxPixels,
		}
	}
}

// Stores uploads byte for byte.
type PassthroughProcessor struct{}

func (PassthroughProcessor) Process(upload *model.UploadRequest, file_name string) (*model.StoredImage, error) {
	return &model.StoredImage{
		FileName: file_name,
		Bytes:    upload.Bytes,
	}, nil
}

// Flattens, center crops and resizes uploads to Size x Size, then
// re-encodes them as JPEG. Images declaring more than MaxPixels pixels are
// rejected before any pixel data is decoded; 0 means no limit.
type NormalizeProcessor struct {
	Size      int
	Quality   int
	MaxPixels int64
}

func (p *NormalizeProcessor) Process(upload *model.UploadRequest, file_name string) (*model.StoredImage, error) {
	if err := p.checkDimensions(upload.Bytes); err != nil {
		return nil, err
	}

	img, file_type, err := image.Decode(bytes.NewReader(upload.Bytes))
	if err != nil {
		return nil, decodeErr(err)
	}
	if img.Bounds().Empty() {
		return nil, e.ErrEmptyImage
	}

	b := img.Bounds()
	log.Debug().
		Str("format", file_type).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("normalizing upload")

	img = FlattenOntoWhite(img)
	img = CenterCropSquare(img)
	img = resize.Resize(
		uint(p.Size),
		uint(p.Size),
		img,
		resize.Lanczos3,
	)

	// fully encode before anything touches disk
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("could not encode image: %w", err)
	}

	return &model.StoredImage{
		FileName: WithCanonicalExtension(file_name),
		Bytes:    buf.Bytes(),
	}, nil
}

// Reads only the header, so a small payload declaring huge dimensions
// never gets its pixel buffer allocated.
func (p *NormalizeProcessor) checkDimensions(data []byte) error {
	img_cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return decodeErr(err)
	}

	pixels := int64(img_cfg.Width) * int64(img_cfg.Height)
	if p.MaxPixels > 0 && pixels > p.MaxPixels {
		return e.ImageExceedsPixelLimit(img_cfg.Width, img_cfg.Height, p.MaxPixels)
	}

	return nil
}

func decodeErr(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return e.ErrUnsupportedImageFormat
	}
	return fmt.Errorf("could not decode image: %w", err)
}

// Swaps whatever extension name has for .jpg.
func WithCanonicalExtension(file_name string) string {
	return strings.TrimSuffix(file_name, filepath.Ext(file_name)) + CANONICAL_EXTENSION
}

// FlattenOntoWhite composites images with any transparency onto an opaque
// white background. Opaque images are returned unchanged.
func FlattenOntoWhite(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	return flat
}

// CenterCropSquare trims equal margins off the longer side so the result is
// square. Square images are returned unchanged.
func CenterCropSquare(img image.Image) image.Image {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	var crop image.Rectangle
	switch {
	case width > height:
		left := (width - height) / 2
		crop = image.Rect(b.Min.X+left, b.Min.Y, b.Min.X+left+height, b.Max.Y)
	case height > width:
		top := (height - width) / 2
		crop = image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Min.Y+top+width)
	default:
		return img
	}

	cropped := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, crop.Min, draw.Src)

	return cropped
}
