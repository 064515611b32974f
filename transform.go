package rgbx

import (
	"fmt"
	"image"
)

// Options controls image transforms.
type Options struct {
	// Workers limits the number of goroutines processing scanlines,
	// 0 uses GOMAXPROCS and 1 processes the image sequentially.
	Workers int
}

func newOptions(opts []func(o *Options)) Options {
	var opt Options
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	return opt
}

// Encode packs every pixel of src with op.
// The result is identical for any number of workers.
func Encode(src *HDRImage, op Operator, opts ...func(o *Options)) (*image.NRGBA, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("%w: nil operator", ErrUnknownMethod)
	}
	opt := newOptions(opts)

	dst := image.NewNRGBA(image.Rect(0, 0, src.W, src.H))
	encode := op.Encode

	parallelFor(src.H, opt.Workers, func(start, end int) {
		for y := start; y < end; y++ {
			in := src.Pix[y*src.W*3 : (y+1)*src.W*3]
			out := dst.Pix[y*dst.Stride : y*dst.Stride+src.W*4]
			for x := 0; x < src.W; x++ {
				px := encode([3]float32{in[x*3], in[x*3+1], in[x*3+2]})
				copy(out[x*4:x*4+4], px[:])
			}
		}
	})

	return dst, nil
}

// Decode restores linear RGB from an image packed with op.
func Decode(src *image.NRGBA, op Operator, opts ...func(o *Options)) (*HDRImage, error) {
	if err := validateEncoded(src); err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("%w: nil operator", ErrUnknownMethod)
	}
	opt := newOptions(opts)

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := NewHDRImage(w, h)
	decode := op.Decode

	parallelFor(h, opt.Workers, func(start, end int) {
		for y := start; y < end; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			in := src.Pix[off : off+w*4]
			out := dst.Pix[y*w*3 : (y+1)*w*3]
			for x := 0; x < w; x++ {
				px := decode([4]uint8{in[x*4], in[x*4+1], in[x*4+2], in[x*4+3]})
				copy(out[x*3:x*3+3], px[:])
			}
		}
	})

	return dst, nil
}
