package rgbx

import "math"

// RGBD stores a shared divisor in the 4th byte.
//
// Pixels with all channels below 1.0 keep full 8-bit precision, brighter pixels
// are divided by their max channel. The divisor byte is stored verbatim.
type RGBD struct{}

// NewRGBD creates an RGBD operator.
func NewRGBD() RGBD { return RGBD{} }

// Name implements Operator.
func (RGBD) Name() string { return MethodRGBD }

// Encode implements Operator.
// Channels are scaled by the stored divisor floor(255/M), not the exact 255/M.
func (RGBD) Encode(rgb [3]float32) [4]uint8 {
	r, g, b := sanitize3(rgb)
	maxRGB := max(r, 1.0, g, b)

	f := math.Floor(255.0 / maxRGB)
	if f < 1 {
		f = 1
	}

	return [4]uint8{
		roundByte(r * f),
		roundByte(g * f),
		roundByte(b * f),
		uint8(f),
	}
}

// Decode implements Operator.
func (RGBD) Decode(rgbd [4]uint8) [3]float32 {
	if rgbd[3] == 0 {
		return [3]float32{}
	}
	f := 1.0 / float64(rgbd[3])
	return [3]float32{
		float32(float64(rgbd[0]) * f),
		float32(float64(rgbd[1]) * f),
		float32(float64(rgbd[2]) * f),
	}
}

// RGBDRange stores a quantized divisor in the 4th byte, values above Range saturate.
type RGBDRange struct {
	Range float64
}

// NewRGBDRange creates an "rgbd2" operator, rng must be positive.
func NewRGBDRange(rng float64) (RGBDRange, error) {
	if err := checkRange(rng); err != nil {
		return RGBDRange{}, err
	}
	return RGBDRange{Range: rng}, nil
}

// Name implements Operator.
func (RGBDRange) Name() string { return MethodRGBDRange }

// Encode implements Operator.
func (o RGBDRange) Encode(rgb [3]float32) [4]uint8 {
	r, g, b := sanitize3(rgb)
	maxRGB := max(r, 1.0, g, b)

	d := math.Max(o.Range/maxRGB, 1.0)
	d = math.Min(math.Floor(d)/255.0, 1.0)
	f := d * (255.0 / o.Range)

	return [4]uint8{
		roundByte(255.0 * r * f),
		roundByte(255.0 * g * f),
		roundByte(255.0 * b * f),
		roundByte(255.0 * d),
	}
}

// Decode implements Operator.
func (o RGBDRange) Decode(rgbd [4]uint8) [3]float32 {
	if rgbd[3] == 0 {
		return [3]float32{}
	}
	f := (o.Range / 255.0) / (float64(rgbd[3]) / 255.0)
	return [3]float32{
		float32(float64(rgbd[0]) * f / 255.0),
		float32(float64(rgbd[1]) * f / 255.0),
		float32(float64(rgbd[2]) * f / 255.0),
	}
}
