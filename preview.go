package rgbx

import (
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
)

// Preview tone maps img for display: values are scaled by 2^exposure, clipped
// to [0,1] and sRGB encoded. When maxWidth is positive and smaller than the
// image width, the result is downscaled with Lanczos3 keeping the aspect ratio.
func Preview(img *HDRImage, exposure float32, maxWidth uint) (image.Image, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	scale := float32(math.Exp2(float64(exposure)))
	out := image.NewNRGBA(image.Rect(0, 0, img.W, img.H))
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			v := img.At(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: previewByte(v[0] * scale),
				G: previewByte(v[1] * scale),
				B: previewByte(v[2] * scale),
				A: 0xFF,
			})
		}
	}

	if maxWidth == 0 || maxWidth >= uint(img.W) {
		return out, nil
	}
	return resize.Resize(maxWidth, 0, out, resize.Lanczos3), nil
}

func previewByte(v float32) uint8 {
	return uint8(srgbOetf(clamp01(v))*255.0 + 0.5)
}
