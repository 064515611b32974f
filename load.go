package rgbx

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// Format identifies an image container.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatTIFF
	FormatEXR
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tiff"
	case FormatEXR:
		return "exr"
	default:
		return "unknown"
	}
}

// FormatFromPath selects a container by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".exr":
		return FormatEXR, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadHDR decodes an OpenEXR, PNG or TIFF image into linear floats.
//
// Integer images are normalized to [0,1] without a transfer function.
// Single channel images are replicated into R, G and B.
func LoadHDR(data []byte) (*HDRImage, error) {
	if IsEXR(data) {
		return DecodeEXR(data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, w, h)
	}

	out := NewHDRImage(w, h)
	gray := isGrayImage(img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if gray {
				g := float32(color.Gray16Model.Convert(c).(color.Gray16).Y) / 65535.0
				out.Set(x, y, [3]float32{g, g, g})
				continue
			}
			n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
			out.Set(x, y, [3]float32{
				float32(n.R) / 65535.0,
				float32(n.G) / 65535.0,
				float32(n.B) / 65535.0,
			})
		}
	}
	return out, nil
}

// LoadEncoded decodes a PNG or TIFF image holding 4 channel encoded pixels.
// Channels are read as stored, the 4th channel is never treated as alpha.
func LoadEncoded(data []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}

	switch src := img.(type) {
	case *image.NRGBA:
		return src, nil
	case *image.NRGBA64:
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			s := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			d := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
			// Keep the high byte of each big-endian 16-bit sample.
			for i := range d {
				d[i] = s[i*2]
			}
		}
		return dst, nil
	}

	// Opaque or premultiplied sources: alpha is either 255 or color is already lost.
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA))
		}
	}
	return dst, nil
}

// WriteEncoded stores encoded pixels as PNG or TIFF.
func WriteEncoded(w io.Writer, img *image.NRGBA, format Format) error {
	if err := validateEncoded(img); err != nil {
		return err
	}
	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("%w: %s for encoded image", ErrUnsupportedFormat, format)
	}
}

// WriteHDR stores decoded pixels, only OpenEXR can hold float data.
func WriteHDR(w io.Writer, img *HDRImage, format Format) error {
	if format != FormatEXR {
		return fmt.Errorf("%w: %s for HDR image", ErrUnsupportedFormat, format)
	}
	return EncodeEXR(w, img, EXRCompressionZips)
}

func isGrayImage(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	default:
		return false
	}
}
