package rgbx

import (
	"fmt"
	"image"
)

// HDRImage stores a linear-light image in RGB float32, 3 values per pixel, row-major.
type HDRImage struct {
	W, H int
	Pix  []float32
}

// NewHDRImage allocates a black image.
func NewHDRImage(w, h int) *HDRImage {
	return &HDRImage{W: w, H: h, Pix: make([]float32, w*h*3)}
}

// At returns the pixel at x, y, coordinates are clamped to the image bounds.
func (h *HDRImage) At(x, y int) [3]float32 {
	x = min(max(x, 0), h.W-1)
	y = min(max(y, 0), h.H-1)
	i := (y*h.W + x) * 3
	return [3]float32{h.Pix[i], h.Pix[i+1], h.Pix[i+2]}
}

// Set stores the pixel at x, y.
func (h *HDRImage) Set(x, y int, v [3]float32) {
	i := (y*h.W + x) * 3
	copy(h.Pix[i:i+3], v[:])
}

func (h *HDRImage) validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil", ErrInvalidImage)
	}
	if h.W <= 0 || h.H <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, h.W, h.H)
	}
	if len(h.Pix) < h.W*h.H*3 {
		return fmt.Errorf("%w: %d values for %dx%d", ErrInvalidImage, len(h.Pix), h.W, h.H)
	}
	return nil
}

func validateEncoded(img *image.NRGBA) error {
	if img == nil {
		return fmt.Errorf("%w: nil", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	if img.Stride < b.Dx()*4 || len(img.Pix) < (b.Dy()-1)*img.Stride+b.Dx()*4 {
		return fmt.Errorf("%w: short pixel buffer", ErrInvalidImage)
	}
	return nil
}
