package rgbx

import (
	"fmt"
	"math"
)

// Operator converts a single pixel between linear RGB floats and 4 encoded bytes.
//
// Implementations are immutable and safe for concurrent use.
type Operator interface {
	// Encode packs a linear RGB pixel. Every output byte is within [0,255].
	Encode(rgb [3]float32) [4]uint8
	// Decode restores an approximation of the pixel packed by Encode.
	Decode(rgbx [4]uint8) [3]float32
	// Name identifies the encoding, e.g. "rgbm".
	Name() string
}

// Methods lists supported encoding names.
func Methods() []string {
	return []string{MethodRGBM, MethodRGBD, MethodRGBDRange, MethodRGBE}
}

// NewOperator creates an operator by name.
// The range is only used by "rgbm" and "rgbd2".
func NewOperator(method string, rng float64) (Operator, error) {
	switch method {
	case MethodRGBM:
		op, err := NewRGBM(rng)
		if err != nil {
			return nil, err
		}
		return op, nil
	case MethodRGBD:
		return NewRGBD(), nil
	case MethodRGBDRange:
		op, err := NewRGBDRange(rng)
		if err != nil {
			return nil, err
		}
		return op, nil
	case MethodRGBE:
		return NewRGBE(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// UsesRange reports whether the method is parameterized by range.
func UsesRange(method string) bool {
	return method == MethodRGBM || method == MethodRGBDRange
}

func checkRange(rng float64) error {
	if !(rng > 0) || math.IsInf(rng, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidRange, rng)
	}
	return nil
}

// sanitize maps NaN and negative values to 0 and +Inf to the largest float32.
func sanitize(v float32) float64 {
	if !(v > 0) {
		return 0
	}
	if v > math.MaxFloat32 {
		return math.MaxFloat32
	}
	return float64(v)
}

func sanitize3(rgb [3]float32) (r, g, b float64) {
	return sanitize(rgb[0]), sanitize(rgb[1]), sanitize(rgb[2])
}

// roundByte rounds to the nearest integer and saturates to [0,255].
func roundByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// truncByte drops the fraction and saturates to [0,255].
func truncByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
