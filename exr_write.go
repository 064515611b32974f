package rgbx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// EncodeEXR writes img as a scanline OpenEXR file with FLOAT R, G, B channels.
func EncodeEXR(w io.Writer, img *HDRImage, compression EXRCompression) error {
	if err := img.validate(); err != nil {
		return err
	}
	switch compression {
	case EXRCompressionNone, EXRCompressionZips, EXRCompressionZip:
	default:
		return fmt.Errorf("%w: OpenEXR compression %d", ErrUnsupportedFormat, compression)
	}

	hdr := exrHeader{
		// Channel list must be sorted by name.
		channels: []exrChannel{
			{name: "B", pixelType: exrPixelFloat, xSampling: 1, ySampling: 1, role: exrChanB},
			{name: "G", pixelType: exrPixelFloat, xSampling: 1, ySampling: 1, role: exrChanG},
			{name: "R", pixelType: exrPixelFloat, xSampling: 1, ySampling: 1, role: exrChanR},
		},
		dataWindow:  [4]int32{0, 0, int32(img.W - 1), int32(img.H - 1)},
		compression: compression,
	}

	var head bytes.Buffer
	writeEXRHeader(&head, hdr)

	blockLines := hdr.linesPerBlock()
	blockCount := (img.H + blockLines - 1) / blockLines

	var (
		body    bytes.Buffer
		offsets = make([]uint64, blockCount)
		start   = uint64(head.Len() + 8*blockCount)
	)
	for block := 0; block < blockCount; block++ {
		y0 := block * blockLines
		lines := min(blockLines, img.H-y0)

		raw := exrPackLines(img, hdr.channels, y0, lines)
		payload, err := exrCompress(compression, raw)
		if err != nil {
			return fmt.Errorf("OpenEXR block %d: %w", block, err)
		}

		offsets[block] = start + uint64(body.Len())
		writeI32(&body, int32(y0))
		writeI32(&body, int32(len(payload)))
		body.Write(payload)
	}

	for _, off := range offsets {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], off)
		head.Write(buf[:])
	}

	if _, err := w.Write(head.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func writeEXRHeader(buf *bytes.Buffer, hdr exrHeader) {
	writeU32(buf, exrMagic)
	writeU32(buf, 2) // Version 2, single part scanline.

	var chlist bytes.Buffer
	for _, ch := range hdr.channels {
		chlist.WriteString(ch.name)
		chlist.WriteByte(0)
		writeI32(&chlist, ch.pixelType)
		chlist.Write([]byte{0, 0, 0, 0}) // pLinear, reserved.
		writeI32(&chlist, ch.xSampling)
		writeI32(&chlist, ch.ySampling)
	}
	chlist.WriteByte(0)
	writeEXRAttribute(buf, "channels", "chlist", chlist.Bytes())

	writeEXRAttribute(buf, "compression", "compression", []byte{byte(hdr.compression)})

	var box bytes.Buffer
	for _, v := range hdr.dataWindow {
		writeI32(&box, v)
	}
	writeEXRAttribute(buf, "dataWindow", "box2i", box.Bytes())
	writeEXRAttribute(buf, "displayWindow", "box2i", box.Bytes())

	writeEXRAttribute(buf, "lineOrder", "lineOrder", []byte{0}) // Increasing Y.

	var f32 bytes.Buffer
	writeU32(&f32, math.Float32bits(1))
	writeEXRAttribute(buf, "pixelAspectRatio", "float", f32.Bytes())
	writeEXRAttribute(buf, "screenWindowWidth", "float", f32.Bytes())
	writeEXRAttribute(buf, "screenWindowCenter", "v2f", make([]byte, 8))

	buf.WriteByte(0)
}

func writeEXRAttribute(buf *bytes.Buffer, name, typ string, payload []byte) {
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.WriteString(typ)
	buf.WriteByte(0)
	writeI32(buf, int32(len(payload)))
	buf.Write(payload)
}

// exrPackLines lays out lines of img channel by channel within each scanline.
func exrPackLines(img *HDRImage, channels []exrChannel, y0, lines int) []byte {
	out := make([]byte, 0, exrExpectedBlockBytes(img.W, lines, channels))
	for y := y0; y < y0+lines; y++ {
		row := img.Pix[y*img.W*3 : (y+1)*img.W*3]
		for _, ch := range channels {
			for x := 0; x < img.W; x++ {
				out = binary.LittleEndian.AppendUint32(out, math.Float32bits(row[x*3+ch.role]))
			}
		}
	}
	return out
}

func exrCompress(compression EXRCompression, raw []byte) ([]byte, error) {
	if compression == EXRCompressionNone {
		return raw, nil
	}

	data := shuffleBytes(raw)
	applyPredictor(data)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if buf.Len() >= len(raw) {
		return raw, nil
	}
	return buf.Bytes(), nil
}

func shuffleBytes(data []byte) []byte {
	half := (len(data) + 1) / 2
	out := make([]byte, len(data))
	for i, b := range data {
		if i%2 == 0 {
			out[i/2] = b
		} else {
			out[half+i/2] = b
		}
	}
	return out
}

func applyPredictor(data []byte) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] = byte(int(data[i]) - int(data[i-1]) + 128)
	}
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI32(buf *bytes.Buffer, v int32) {
	writeU32(buf, uint32(v))
}
