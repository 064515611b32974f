package rgbx

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// FileOptions controls file level encode and decode.
type FileOptions struct {
	// Workers limits scanline parallelism, see Options.
	Workers int
	// ErrorOut, when set, receives an OpenEXR map of absolute encoding error.
	ErrorOut string
	// OnStats is called with error statistics of the encoded image.
	OnStats func(st ErrorStats)
}

func newFileOptions(opts []func(o *FileOptions)) FileOptions {
	var opt FileOptions
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	return opt
}

// EncodeFile reads an HDR image from inPath, encodes it with op and writes a PNG
// or TIFF to outPath. Nothing is written if any step fails.
func EncodeFile(inPath, outPath string, op Operator, opts ...func(o *FileOptions)) error {
	if op == nil {
		return fmt.Errorf("%w: nil operator", ErrUnknownMethod)
	}
	opt := newFileOptions(opts)
	log := Logger().With(zap.String("method", op.Name()), zap.String("in", inPath), zap.String("out", outPath))
	logOperator(log, op)

	format, err := FormatFromPath(outPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Clean(inPath))
	if err != nil {
		return err
	}
	src, err := LoadHDR(data)
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}

	start := time.Now()
	enc, err := Encode(src, op, func(o *Options) { o.Workers = opt.Workers })
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	log.Info("encoded", zap.Int("width", src.W), zap.Int("height", src.H), zap.Duration("elapsed", time.Since(start)))

	var out bytes.Buffer
	if err := WriteEncoded(&out, enc, format); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}

	var errMap bytes.Buffer
	if opt.ErrorOut != "" {
		m, err := ErrorMap(src, enc, op)
		if err != nil {
			return fmt.Errorf("error map: %w", err)
		}
		if err := EncodeEXR(&errMap, m, EXRCompressionZips); err != nil {
			return fmt.Errorf("write error map: %w", err)
		}
	}

	st, err := Measure(src, enc, op)
	if err != nil {
		return fmt.Errorf("measure: %w", err)
	}
	log.Info("encoding error",
		zap.Float64("max", st.Max),
		zap.Float64("mean", st.Mean),
		zap.Float64("rmse", st.RMSE),
		zap.Int("max_x", st.MaxX),
		zap.Int("max_y", st.MaxY),
	)
	if opt.OnStats != nil {
		opt.OnStats(st)
	}

	if err := os.WriteFile(filepath.Clean(outPath), out.Bytes(), 0o644); err != nil {
		return err
	}
	if opt.ErrorOut != "" {
		if err := os.WriteFile(filepath.Clean(opt.ErrorOut), errMap.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write error map: %w", err)
		}
	}
	return nil
}

// DecodeFile reads an encoded PNG or TIFF from inPath, decodes it with op and
// writes an OpenEXR image to outPath.
func DecodeFile(inPath, outPath string, op Operator, opts ...func(o *FileOptions)) error {
	if op == nil {
		return fmt.Errorf("%w: nil operator", ErrUnknownMethod)
	}
	opt := newFileOptions(opts)
	log := Logger().With(zap.String("method", op.Name()), zap.String("in", inPath), zap.String("out", outPath))
	logOperator(log, op)

	format, err := FormatFromPath(outPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Clean(inPath))
	if err != nil {
		return err
	}
	enc, err := LoadEncoded(data)
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}

	start := time.Now()
	img, err := Decode(enc, op, func(o *Options) { o.Workers = opt.Workers })
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	log.Info("decoded", zap.Int("width", img.W), zap.Int("height", img.H), zap.Duration("elapsed", time.Since(start)))

	var out bytes.Buffer
	if err := WriteHDR(&out, img, format); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return os.WriteFile(filepath.Clean(outPath), out.Bytes(), 0o644)
}

// PreviewFile writes a tone mapped PNG of an image to outPath.
// With a nil op the input is read as HDR, otherwise it is decoded with op first.
func PreviewFile(inPath, outPath string, op Operator, exposure float32, maxWidth uint) error {
	data, err := os.ReadFile(filepath.Clean(inPath))
	if err != nil {
		return err
	}

	img, err := loadPreviewSource(data, op)
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}

	pv, err := Preview(img, exposure, maxWidth)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := png.Encode(&out, pv); err != nil {
		return err
	}
	Logger().Info("preview",
		zap.String("in", inPath),
		zap.String("out", outPath),
		zap.Float32("exposure", exposure),
		zap.Int("width", pv.Bounds().Dx()),
	)
	return os.WriteFile(filepath.Clean(outPath), out.Bytes(), 0o644)
}

func loadPreviewSource(data []byte, op Operator) (*HDRImage, error) {
	if op == nil {
		return LoadHDR(data)
	}
	enc, err := LoadEncoded(data)
	if err != nil {
		return nil, err
	}
	return Decode(enc, op)
}

func logOperator(log *zap.Logger, op Operator) {
	switch o := op.(type) {
	case RGBM:
		log.Info("use range", zap.Float64("range", o.Range))
	case RGBDRange:
		log.Info("use range", zap.Float64("range", o.Range))
	}
}
