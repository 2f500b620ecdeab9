package handler

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/julianlk522/snapsquare/config"
	e "github.com/julianlk522/snapsquare/error"
	"github.com/julianlk522/snapsquare/model"
)

const TEST_SIZE = 224

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// solid-colored image with optional bands of another color on the longer
// side, each band as wide as the margin a center crop would remove
func bandedImg(width, height int, center, bands color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := center
			switch {
			case width > height && (x < (width-height)/2 || x >= (width-height)/2+height):
				c = bands
			case height > width && (y < (height-width)/2 || y >= (height-width)/2+width):
				c = bands
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertColorNear(t *testing.T, want color.Color, got color.Color, tolerance uint32) {
	t.Helper()
	wr, wg, wb, _ := want.RGBA()
	gr, gg, gb, _ := got.RGBA()
	near := func(a, b uint32) bool {
		a, b = a>>8, b>>8
		if a > b {
			return a-b <= tolerance
		}
		return b-a <= tolerance
	}
	assert.True(
		t,
		near(wr, gr) && near(wg, gg) && near(wb, gb),
		"want color near %v, got %v", want, got,
	)
}

func normalize(t *testing.T, data []byte, file_name string) (*model.StoredImage, image.Image) {
	t.Helper()
	p := &NormalizeProcessor{Size: TEST_SIZE, Quality: 95}

	stored, err := p.Process(&model.UploadRequest{Bytes: data}, file_name)
	require.NoError(t, err)

	out, format, err := image.Decode(bytes.NewReader(stored.Bytes))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)

	return stored, out
}

func TestNormalizeOutputIsSquare(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"portrait", 400, 800},
		{"landscape", 800, 400},
		{"square", 500, 500},
		{"tiny", 3, 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, out := normalize(t, encodePNG(t, bandedImg(tc.width, tc.height, red, blue)), "in.png")

			b := out.Bounds()
			assert.Equal(t, TEST_SIZE, b.Dx())
			assert.Equal(t, TEST_SIZE, b.Dy())
		})
	}
}

func TestNormalizeCropsCenter(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"portrait", 400, 800},
		{"landscape", 800, 400},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// blue bands cover exactly what the crop removes
			_, out := normalize(t, encodePNG(t, bandedImg(tc.width, tc.height, red, blue)), "in.png")

			b := out.Bounds()
			for _, pt := range []image.Point{
				{b.Min.X + 2, b.Min.Y + 2},
				{b.Max.X - 3, b.Min.Y + 2},
				{b.Min.X + 2, b.Max.Y - 3},
				{b.Max.X - 3, b.Max.Y - 3},
				{b.Min.X + b.Dx()/2, b.Min.Y + b.Dy()/2},
			} {
				assertColorNear(t, red, out.At(pt.X, pt.Y), 12)
			}
		})
	}
}

func TestNormalizeSquareKeepsCenterColor(t *testing.T) {
	_, out := normalize(t, encodePNG(t, bandedImg(300, 300, blue, blue)), "in.png")

	b := out.Bounds()
	assertColorNear(t, blue, out.At(b.Dx()/2, b.Dy()/2), 12)
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if x < 100 {
				img.Set(x, y, color.NRGBA{}) // fully transparent
			} else {
				img.Set(x, y, color.NRGBA{R: 255, A: 255})
			}
		}
	}

	_, out := normalize(t, encodePNG(t, img), "alpha.png")

	_, is_ycbcr := out.(*image.YCbCr)
	assert.True(t, is_ycbcr, "expected a decoded JPEG without alpha, got %T", out)

	assertColorNear(t, color.White, out.At(TEST_SIZE/4, TEST_SIZE/2), 12)
	assertColorNear(t, red, out.At(3*TEST_SIZE/4, TEST_SIZE/2), 12)
}

func TestNormalizeInputFormats(t *testing.T) {
	src := bandedImg(64, 32, red, blue)

	var jpg_buf, gif_buf, bmp_buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg_buf, src, nil))
	require.NoError(t, gif.Encode(&gif_buf, src, nil))
	require.NoError(t, bmp.Encode(&bmp_buf, src))

	tests := []struct {
		name string
		data []byte
	}{
		{"png", encodePNG(t, src)},
		{"jpeg", jpg_buf.Bytes()},
		{"gif", gif_buf.Bytes()},
		{"bmp", bmp_buf.Bytes()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stored, out := normalize(t, tc.data, "upload."+tc.name)

			assert.Equal(t, "upload.jpg", stored.FileName)
			assert.Equal(t, TEST_SIZE, out.Bounds().Dx())
			assert.Equal(t, TEST_SIZE, out.Bounds().Dy())
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	p := &NormalizeProcessor{Size: TEST_SIZE, Quality: 95}

	_, err := p.Process(&model.UploadRequest{Bytes: []byte("definitely not an image")}, "x.png")
	assert.ErrorIs(t, err, e.ErrUnsupportedImageFormat)

	// valid PNG header, truncated body
	data := encodePNG(t, bandedImg(50, 50, red, red))
	_, err = p.Process(&model.UploadRequest{Bytes: data[:len(data)/2]}, "x.png")
	assert.Error(t, err)
}

// PNG whose IHDR declares width x height but carries no pixel data
func pngHeaderOnly(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1)))

	// signature(8) length(4) "IHDR"(4) data(13) crc(4)
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestNormalizeRejectsTooManyPixels(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		maxPixels int64
		wantErr   bool
	}{
		{"under limit", encodePNG(t, bandedImg(100, 50, red, blue)), 5000, false},
		{"over limit", encodePNG(t, bandedImg(100, 51, red, blue)), 5000, true},
		{"no limit", encodePNG(t, bandedImg(100, 51, red, blue)), 0, false},
		// would need ~37 GiB if decoded
		{"forged header", pngHeaderOnly(t, 100000, 100000), config.DEFAULT_MAX_PIXELS, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &NormalizeProcessor{Size: TEST_SIZE, Quality: 95, MaxPixels: tc.maxPixels}

			stored, err := p.Process(&model.UploadRequest{Bytes: tc.data}, "big.png")
			if !tc.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "big.jpg", stored.FileName)
				return
			}

			assert.ErrorIs(t, err, e.ErrImageTooLarge)
			assert.Nil(t, stored)
		})
	}
}

func TestPassthroughProcessor(t *testing.T) {
	data := []byte("raw bytes, stored untouched")

	stored, err := PassthroughProcessor{}.Process(&model.UploadRequest{Bytes: data}, "raw.bmp")
	require.NoError(t, err)

	assert.Equal(t, "raw.bmp", stored.FileName)
	assert.Equal(t, data, stored.Bytes)
}

func TestNewImgProcessor(t *testing.T) {
	cfg := config.Default()

	cfg.Profile = config.PROFILE_STORE
	assert.IsType(t, PassthroughProcessor{}, NewImgProcessor(cfg))

	cfg.Profile = config.PROFILE_NORMALIZE
	cfg.Image.Size = 614
	p, ok := NewImgProcessor(cfg).(*NormalizeProcessor)
	require.True(t, ok)
	assert.Equal(t, 614, p.Size)
	assert.Equal(t, 95, p.Quality)
	assert.Equal(t, config.DEFAULT_MAX_PIXELS, p.MaxPixels)
}

func TestWithCanonicalExtension(t *testing.T) {
	tests := map[string]string{
		"cat.png":         "cat.jpg",
		"cat.JPEG":        "cat.jpg",
		"archive.tar.gif": "archive.tar.jpg",
		"png":             "png.jpg",
	}

	for in, want := range tests {
		assert.Equal(t, want, WithCanonicalExtension(in))
	}
}

func TestCenterCropSquareBounds(t *testing.T) {
	tests := []struct {
		width, height, want int
	}{
		{800, 400, 400},
		{400, 800, 400},
		{401, 400, 400},
		{5, 5, 5},
	}

	for _, tc := range tests {
		cropped := CenterCropSquare(image.NewRGBA(image.Rect(0, 0, tc.width, tc.height)))
		assert.Equal(t, tc.want, cropped.Bounds().Dx())
		assert.Equal(t, tc.want, cropped.Bounds().Dy())
	}
}
