package rgbx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func TestLoadHDR_greyscale(t *testing.T) {
	gray := image.NewGray16(image.Rect(0, 0, 3, 2))
	gray.SetGray16(1, 1, color.Gray16{Y: 32768})
	gray.SetGray16(2, 0, color.Gray16{Y: 65535})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gray))

	img, err := LoadHDR(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 3, img.W)
	require.Equal(t, 2, img.H)

	x := float32(32768) / 65535
	assert.Equal(t, [3]float32{x, x, x}, img.At(1, 1))
	assert.Equal(t, [3]float32{1, 1, 1}, img.At(2, 0))
	assert.Equal(t, [3]float32{}, img.At(0, 0))

	// A grey source encodes exactly like the equivalent RGB pixel.
	for _, op := range allOperators(t, DefaultRange) {
		enc, err := Encode(img, op)
		require.NoError(t, err)
		c := enc.NRGBAAt(1, 1)
		assert.Equal(t, op.Encode([3]float32{x, x, x}), [4]uint8{c.R, c.G, c.B, c.A}, op.Name())
	}
}

func TestLoadHDR_rgb16(t *testing.T) {
	src := image.NewNRGBA64(image.Rect(0, 0, 2, 1))
	src.SetNRGBA64(0, 0, color.NRGBA64{R: 65535, G: 0, B: 13107, A: 65535})
	src.SetNRGBA64(1, 0, color.NRGBA64{R: 0, G: 65535, B: 0, A: 0})

	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, src, nil))

	img, err := LoadHDR(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, [3]float32{1, 0, 0.2}, img.At(0, 0))
	// Color of transparent pixels is kept.
	assert.Equal(t, [3]float32{0, 1, 0}, img.At(1, 0))
}

func TestLoadHDR_exr(t *testing.T) {
	src := randomHDR(10, 5, 4, 50)
	var buf bytes.Buffer
	require.NoError(t, EncodeEXR(&buf, src, EXRCompressionZips))

	img, err := LoadHDR(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, src.Pix, img.Pix)
}

func TestLoadHDR_invalid(t *testing.T) {
	_, err := LoadHDR([]byte("garbage"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadEncoded(nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteEncoded_roundTrip(t *testing.T) {
	enc := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := range enc.Pix {
		enc.Pix[i] = uint8(i * 7)
	}
	// Zero scale byte with non-zero color must survive.
	enc.SetNRGBA(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	for _, format := range []Format{FormatPNG, FormatTIFF} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteEncoded(&buf, enc, format))

			got, err := LoadEncoded(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, enc.Rect, got.Rect)
			for y := 0; y < 3; y++ {
				for x := 0; x < 4; x++ {
					assert.Equal(t, enc.NRGBAAt(x, y), got.NRGBAAt(x, y), "%d,%d", x, y)
				}
			}
		})
	}

	var buf bytes.Buffer
	assert.ErrorIs(t, WriteEncoded(&buf, enc, FormatEXR), ErrUnsupportedFormat)
	assert.ErrorIs(t, WriteHDR(&buf, NewHDRImage(1, 1), FormatPNG), ErrUnsupportedFormat)
}

func TestLoadEncoded_opaque(t *testing.T) {
	// Opaque PNGs are written without alpha and decode as RGBA.
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	src.SetRGBA(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 0xFF})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	got, err := LoadEncoded(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 0xFF}, got.NRGBAAt(1, 1))
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"a.png":        FormatPNG,
		"dir/b.PNG":    FormatPNG,
		"c.tif":        FormatTIFF,
		"c.tiff":       FormatTIFF,
		"/tmp/out.exr": FormatEXR,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("image.jpg")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
