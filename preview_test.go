package rgbx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPNGSize(t *testing.T, path string, w, h int) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, w, cfg.Width)
	assert.Equal(t, h, cfg.Height)
}

func TestPreview(t *testing.T) {
	img := NewHDRImage(4, 2)
	img.Set(0, 0, [3]float32{0.5, 0.25, 4})
	img.Set(1, 0, [3]float32{-1, 0, 0.001})

	pv, err := Preview(img, 1, 0)
	require.NoError(t, err)
	nrgba, ok := pv.(*image.NRGBA)
	require.True(t, ok)

	c := nrgba.NRGBAAt(0, 0)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(255), c.B)
	assert.Equal(t, uint8(188), c.G)
	assert.Equal(t, uint8(255), c.A)

	// Negative values clip to black, tiny values use the linear segment.
	c = nrgba.NRGBAAt(1, 0)
	assert.Equal(t, color.NRGBA{R: 0, G: 0, B: 7, A: 255}, c)
}

func TestPreview_resize(t *testing.T) {
	img := randomHDR(15, 100, 50, 1)

	pv, err := Preview(img, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), pv.Bounds())

	pv, err = Preview(img, 0, 200)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), pv.Bounds())

	_, err = Preview(nil, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidImage)
}
