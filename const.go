package rgbx

// DefaultRange is the maximum representable value of range-parameterized encodings
// when none is configured.
const DefaultRange = 8.0

const (
	MethodRGBM      = "rgbm"
	MethodRGBD      = "rgbd"
	MethodRGBDRange = "rgbd2"
	MethodRGBE      = "rgbe"
)

const (
	rgbeMinValue = 1e-32
	rgbeBias     = 128
	// Exponent bias plus 8 mantissa bits.
	rgbeDecodeBias = rgbeBias + 8
)
