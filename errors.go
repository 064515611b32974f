package rgbx

import "errors"

var (
	// ErrUnknownMethod is returned when an encoding name is not supported.
	ErrUnknownMethod = errors.New("rgbx: unknown method")

	// ErrInvalidRange is returned for a non-positive or non-finite range.
	ErrInvalidRange = errors.New("rgbx: invalid range")

	// ErrInvalidImage is returned when image dimensions and pixel buffer disagree.
	ErrInvalidImage = errors.New("rgbx: invalid image")

	// ErrUnsupportedFormat is returned when an image container cannot be read or written.
	ErrUnsupportedFormat = errors.New("rgbx: unsupported format")
)
