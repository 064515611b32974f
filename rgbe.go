package rgbx

import "math"

// RGBE is the Radiance shared exponent encoding (Greg Ward).
// Source: http://www.graphics.cornell.edu/~bjw/rgbe.html
type RGBE struct{}

// NewRGBE creates an RGBE operator.
func NewRGBE() RGBE { return RGBE{} }

// Name implements Operator.
func (RGBE) Name() string { return MethodRGBE }

// Encode implements Operator.
func (RGBE) Encode(rgb [3]float32) [4]uint8 {
	r, g, b := sanitize3(rgb)
	v := max(r, g, b)
	if v < rgbeMinValue {
		return [4]uint8{}
	}

	_, e := math.Frexp(v)
	if e > 255-rgbeBias {
		e = 255 - rgbeBias
	}
	// m * 256 / v with v = m * 2^e.
	scale := math.Ldexp(1, 8-e)

	return [4]uint8{
		truncByte(r * scale),
		truncByte(g * scale),
		truncByte(b * scale),
		uint8(e + rgbeBias),
	}
}

// Decode implements Operator.
func (RGBE) Decode(rgbe [4]uint8) [3]float32 {
	if rgbe[3] == 0 {
		return [3]float32{}
	}
	f := math.Ldexp(1, int(rgbe[3])-rgbeDecodeBias)
	return [3]float32{
		float32(float64(rgbe[0]) * f),
		float32(float64(rgbe[1]) * f),
		float32(float64(rgbe[2]) * f),
	}
}
