package rgbx

import "math"

// RGBM stores a shared multiplier in the 4th byte.
// Values above Range saturate.
type RGBM struct {
	Range float64
}

// NewRGBM creates an RGBM operator, rng must be positive.
func NewRGBM(rng float64) (RGBM, error) {
	if err := checkRange(rng); err != nil {
		return RGBM{}, err
	}
	return RGBM{Range: rng}, nil
}

// Name implements Operator.
func (RGBM) Name() string { return MethodRGBM }

// Encode implements Operator.
func (o RGBM) Encode(rgb [3]float32) [4]uint8 {
	r, g, b := sanitize3(rgb)
	inv := 1.0 / o.Range
	r *= inv
	g *= inv
	b *= inv

	a := math.Ceil(max(r, g, b)*255.0) / 255.0
	// Black pixel, or a value too small to round up to one step.
	if !(a > 0) {
		return [4]uint8{}
	}

	return [4]uint8{
		roundByte(255.0 * math.Min(r/a, 1)),
		roundByte(255.0 * math.Min(g/a, 1)),
		roundByte(255.0 * math.Min(b/a, 1)),
		roundByte(255.0 * math.Min(a, 1)),
	}
}

// Decode implements Operator.
func (o RGBM) Decode(rgbm [4]uint8) [3]float32 {
	a := float64(rgbm[3]) * o.Range / (255.0 * 255.0)
	return [3]float32{
		float32(float64(rgbm[0]) * a),
		float32(float64(rgbm[1]) * a),
		float32(float64(rgbm[2]) * a),
	}
}
