package rgbx

import (
	"fmt"
	"image"
	"math"
)

// ErrorStats summarizes the absolute difference between a source image and its
// decoded encoding.
type ErrorStats struct {
	Max  float64
	Mean float64
	RMSE float64
	// MaxX, MaxY locate the pixel with the largest error.
	MaxX, MaxY int
}

// ErrorMap decodes enc with op and returns the per-channel absolute error against src.
func ErrorMap(src *HDRImage, enc *image.NRGBA, op Operator) (*HDRImage, error) {
	decoded, err := decodeMatching(src, enc, op)
	if err != nil {
		return nil, err
	}
	out := NewHDRImage(src.W, src.H)
	n := src.W * src.H * 3
	for i := 0; i < n; i++ {
		out.Pix[i] = float32(math.Abs(float64(src.Pix[i]) - float64(decoded.Pix[i])))
	}
	return out, nil
}

// Measure computes error statistics of enc against src.
func Measure(src *HDRImage, enc *image.NRGBA, op Operator) (ErrorStats, error) {
	decoded, err := decodeMatching(src, enc, op)
	if err != nil {
		return ErrorStats{}, err
	}

	var (
		st    ErrorStats
		sum   float64
		sumSq float64
	)
	n := src.W * src.H * 3
	for i := 0; i < n; i++ {
		d := math.Abs(float64(src.Pix[i]) - float64(decoded.Pix[i]))
		if math.IsNaN(d) {
			continue
		}
		sum += d
		sumSq += d * d
		if d > st.Max {
			st.Max = d
			st.MaxX = (i / 3) % src.W
			st.MaxY = (i / 3) / src.W
		}
	}
	st.Mean = sum / float64(n)
	st.RMSE = math.Sqrt(sumSq / float64(n))
	return st, nil
}

func decodeMatching(src *HDRImage, enc *image.NRGBA, op Operator) (*HDRImage, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	decoded, err := Decode(enc, op)
	if err != nil {
		return nil, err
	}
	if decoded.W != src.W || decoded.H != src.H {
		return nil, fmt.Errorf("%w: encoded %dx%d does not match source %dx%d",
			ErrInvalidImage, decoded.W, decoded.H, src.W, src.H)
	}
	return decoded, nil
}
