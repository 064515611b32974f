package rgbx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

const exrMagic = 20000630

// EXRCompression identifies an OpenEXR scanline compression.
type EXRCompression byte

const (
	EXRCompressionNone EXRCompression = 0
	EXRCompressionZips EXRCompression = 2
	EXRCompressionZip  EXRCompression = 3
)

const (
	exrPixelUint  = 0
	exrPixelHalf  = 1
	exrPixelFloat = 2
)

const (
	exrChanOther = -2
	exrChanY     = -1
	exrChanR     = 0
	exrChanG     = 1
	exrChanB     = 2
)

const (
	// exrMaxPixels caps the decoded data window.
	exrMaxPixels = 1 << 26
	// exrMaxZipRatio is the best ratio deflate can reach.
	exrMaxZipRatio = 1032
)

const (
	exrFlagTiled     = 0x00000200
	exrFlagDeep      = 0x00000800
	exrFlagMultipart = 0x00001000
)

var errNotEXR = errors.New("not an OpenEXR file")

type exrChannel struct {
	name      string
	pixelType int32
	xSampling int32
	ySampling int32
	role      int
}

type exrHeader struct {
	channels    []exrChannel
	dataWindow  [4]int32
	compression EXRCompression
}

func (h exrHeader) linesPerBlock() int {
	if h.compression == EXRCompressionZip {
		return 16
	}
	return 1
}

// IsEXR reports whether data starts with the OpenEXR magic number.
func IsEXR(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == exrMagic
}

// DecodeEXR decodes a single part scanline OpenEXR image.
// A luminance-only (Y) image is promoted to grey RGB.
func DecodeEXR(data []byte) (*HDRImage, error) {
	r := bytes.NewReader(data)
	hdr, err := readEXRHeader(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errors.New("truncated OpenEXR header")
		}
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	width := int(hdr.dataWindow[2]) - int(hdr.dataWindow[0]) + 1
	height := int(hdr.dataWindow[3]) - int(hdr.dataWindow[1]) + 1
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid OpenEXR dimensions %dx%d", ErrInvalidImage, width, height)
	}
	if err := hdr.checkSize(width, height, r.Len()); err != nil {
		return nil, err
	}

	blockLines := hdr.linesPerBlock()
	blockCount := (height + blockLines - 1) / blockLines
	if blockCount*8 > r.Len() {
		return nil, fmt.Errorf("%w: truncated OpenEXR offset table", ErrInvalidImage)
	}
	offsets := make([]uint64, blockCount)
	for i := range offsets {
		v, err := readU64(r)
		if err != nil {
			return nil, fmt.Errorf("read OpenEXR offsets: %w", err)
		}
		offsets[i] = v
	}

	img := NewHDRImage(width, height)
	hasRGB := hasRGBChannel(hdr.channels)

	baseY := int(hdr.dataWindow[1])
	for block := 0; block < blockCount; block++ {
		if offsets[block] == 0 || offsets[block] >= uint64(len(data)) {
			return nil, fmt.Errorf("%w: OpenEXR block %d offset out of range", ErrInvalidImage, block)
		}
		if _, err := r.Seek(int64(offsets[block]), io.SeekStart); err != nil {
			return nil, err
		}
		y, err := readI32(r)
		if err != nil {
			return nil, err
		}
		dataSize, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if dataSize < 0 || int(dataSize) > r.Len() {
			return nil, fmt.Errorf("%w: invalid OpenEXR block size", ErrInvalidImage)
		}
		raw := make([]byte, dataSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}

		startY := int(y) - baseY
		if startY < 0 || startY >= height {
			return nil, fmt.Errorf("%w: OpenEXR scanline %d out of bounds", ErrInvalidImage, y)
		}
		lines := min(blockLines, height-startY)

		expected := exrExpectedBlockBytes(width, lines, hdr.channels)
		unpacked, err := exrDecompress(hdr.compression, raw, expected)
		if err != nil {
			return nil, fmt.Errorf("OpenEXR block %d: %w", block, err)
		}

		if err := exrDecodeBlock(img, hdr.channels, hasRGB, startY, width, lines, unpacked); err != nil {
			return nil, err
		}
	}

	return img, nil
}

// checkSize rejects data windows that the remaining payload cannot hold.
func (h exrHeader) checkSize(width, height, payload int) error {
	if width > exrMaxPixels || height > exrMaxPixels || width*height > exrMaxPixels {
		return fmt.Errorf("%w: OpenEXR dimensions %dx%d too large", ErrInvalidImage, width, height)
	}

	limit := payload
	if h.compression != EXRCompressionNone {
		limit *= exrMaxZipRatio
	}
	if exrExpectedBlockBytes(width, height, h.channels) > limit {
		return fmt.Errorf("%w: OpenEXR dimensions %dx%d exceed file size", ErrInvalidImage, width, height)
	}
	return nil
}

func readEXRHeader(r *bytes.Reader) (exrHeader, error) {
	var hdr exrHeader

	magic, err := readU32(r)
	if err != nil {
		return hdr, err
	}
	if magic != exrMagic {
		return hdr, errNotEXR
	}
	version, err := readU32(r)
	if err != nil {
		return hdr, err
	}
	switch {
	case version&exrFlagTiled != 0:
		return hdr, errors.New("tiled OpenEXR not supported")
	case version&exrFlagMultipart != 0:
		return hdr, errors.New("multipart OpenEXR not supported")
	case version&exrFlagDeep != 0:
		return hdr, errors.New("deep OpenEXR not supported")
	}

	var hasDataWindow bool
	for {
		name, err := readNullString(r)
		if err != nil {
			return hdr, err
		}
		if name == "" {
			break
		}
		typ, err := readNullString(r)
		if err != nil {
			return hdr, err
		}
		size, err := readI32(r)
		if err != nil {
			return hdr, err
		}
		if size < 0 || int(size) > r.Len() {
			return hdr, fmt.Errorf("invalid OpenEXR attribute %q size", name)
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return hdr, err
		}

		switch name {
		case "channels":
			if typ != "chlist" {
				return hdr, errors.New("unexpected channels attribute type")
			}
			if hdr.channels, err = parseEXRChannels(payload); err != nil {
				return hdr, err
			}
		case "dataWindow":
			if typ != "box2i" || len(payload) != 16 {
				return hdr, errors.New("invalid dataWindow attribute")
			}
			for i := range hdr.dataWindow {
				hdr.dataWindow[i] = int32(binary.LittleEndian.Uint32(payload[i*4:]))
			}
			hasDataWindow = true
		case "compression":
			if typ != "compression" || len(payload) < 1 {
				return hdr, errors.New("invalid compression attribute")
			}
			hdr.compression = EXRCompression(payload[0])
		case "tiles":
			return hdr, errors.New("tiled OpenEXR not supported")
		}
	}

	if len(hdr.channels) == 0 {
		return hdr, errors.New("OpenEXR missing channels")
	}
	if !hasDataWindow {
		return hdr, errors.New("OpenEXR missing dataWindow")
	}
	if !hasRGBOrY(hdr.channels) {
		return hdr, errors.New("OpenEXR missing R/G/B or Y channels")
	}
	for _, ch := range hdr.channels {
		if ch.xSampling != 1 || ch.ySampling != 1 {
			return hdr, errors.New("OpenEXR subsampled channels are not supported")
		}
	}
	switch hdr.compression {
	case EXRCompressionNone, EXRCompressionZips, EXRCompressionZip:
	default:
		return hdr, fmt.Errorf("unsupported OpenEXR compression %d", hdr.compression)
	}

	return hdr, nil
}

func parseEXRChannels(data []byte) ([]exrChannel, error) {
	r := bytes.NewReader(data)
	var channels []exrChannel
	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		pixelType, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if pixelType != exrPixelHalf && pixelType != exrPixelFloat && pixelType != exrPixelUint {
			return nil, fmt.Errorf("unsupported OpenEXR pixel type %d", pixelType)
		}
		// pLinear and reserved bytes.
		if _, err := r.Seek(4, io.SeekCurrent); err != nil {
			return nil, err
		}
		xSampling, err := readI32(r)
		if err != nil {
			return nil, err
		}
		ySampling, err := readI32(r)
		if err != nil {
			return nil, err
		}
		channels = append(channels, exrChannel{
			name:      name,
			pixelType: pixelType,
			xSampling: xSampling,
			ySampling: ySampling,
			role:      exrChannelRole(name),
		})
	}
	return channels, nil
}

func exrChannelRole(name string) int {
	switch strings.ToUpper(name) {
	case "R":
		return exrChanR
	case "G":
		return exrChanG
	case "B":
		return exrChanB
	case "Y":
		return exrChanY
	default:
		return exrChanOther
	}
}

func exrBytesPerSample(pixelType int32) int {
	if pixelType == exrPixelHalf {
		return 2
	}
	return 4
}

func exrExpectedBlockBytes(width, lines int, channels []exrChannel) int {
	total := 0
	for _, ch := range channels {
		total += width * lines * exrBytesPerSample(ch.pixelType)
	}
	return total
}

func exrDecompress(compression EXRCompression, data []byte, expected int) ([]byte, error) {
	// Blocks that do not shrink are stored uncompressed.
	if compression == EXRCompressionNone || len(data) == expected {
		if len(data) != expected {
			return nil, errors.New("unexpected OpenEXR block size")
		}
		return data, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	uncompressed, err := io.ReadAll(io.LimitReader(zr, int64(expected)+1))
	if err != nil {
		return nil, err
	}
	if len(uncompressed) != expected {
		return nil, errors.New("unexpected OpenEXR decompressed size")
	}
	undoPredictor(uncompressed)
	return unshuffleBytes(uncompressed), nil
}

func undoPredictor(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

func unshuffleBytes(data []byte) []byte {
	half := (len(data) + 1) / 2
	out := make([]byte, len(data))
	for i := range out {
		if i%2 == 0 {
			out[i] = data[i/2]
		} else {
			out[i] = data[half+i/2]
		}
	}
	return out
}

// exrDecodeBlock spreads a block into dst. Y is used only for images without R, G or B.
func exrDecodeBlock(dst *HDRImage, channels []exrChannel, hasRGB bool, startY, width, lines int, data []byte) error {
	offset := 0
	for row := 0; row < lines; row++ {
		y := startY + row
		for _, ch := range channels {
			lineBytes := width * exrBytesPerSample(ch.pixelType)
			if offset+lineBytes > len(data) {
				return fmt.Errorf("%w: OpenEXR block truncated", ErrInvalidImage)
			}
			line := data[offset : offset+lineBytes]
			offset += lineBytes

			if ch.role == exrChanOther || (ch.role == exrChanY && hasRGB) {
				continue
			}
			exrApplyLine(dst, ch.role, y, width, ch.pixelType, line)
		}
	}
	return nil
}

func exrApplyLine(dst *HDRImage, role int, y, width int, pixelType int32, line []byte) {
	row := dst.Pix[y*dst.W*3 : (y+1)*dst.W*3]
	for x := 0; x < width; x++ {
		var v float32
		switch pixelType {
		case exrPixelHalf:
			v = halfToFloat32(binary.LittleEndian.Uint16(line[x*2:]))
		case exrPixelFloat:
			v = math.Float32frombits(binary.LittleEndian.Uint32(line[x*4:]))
		default:
			v = float32(binary.LittleEndian.Uint32(line[x*4:]))
		}
		if role == exrChanY {
			row[x*3] = v
			row[x*3+1] = v
			row[x*3+2] = v
			continue
		}
		row[x*3+role] = v
	}
}

func hasRGBOrY(channels []exrChannel) bool {
	for _, ch := range channels {
		if ch.role != exrChanOther {
			return true
		}
	}
	return false
}

func hasRGBChannel(channels []exrChannel) bool {
	for _, ch := range channels {
		if ch.role >= exrChanR {
			return true
		}
	}
	return false
}

func readNullString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := int32(h>>10) & 0x1F
	mant := int32(h & 0x03FF)

	switch {
	case exp == 0 && mant == 0:
		return math.Float32frombits(sign << 31)
	case exp == 0:
		for mant&0x0400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x03FF
	case exp == 31:
		return math.Float32frombits((sign << 31) | 0x7F800000 | (uint32(mant) << 13))
	}

	exp += 127 - 15
	return math.Float32frombits((sign << 31) | (uint32(exp) << 23) | (uint32(mant) << 13))
}
