package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/rgbx"
)

func TestRunEncode_usage(t *testing.T) {
	assert.ErrorIs(t, runEncode(nil), errUsage)
	assert.ErrorIs(t, runEncode([]string{"only.exr"}), errUsage)
	assert.ErrorIs(t, runEncode([]string{"a.exr", "b.png", "c.png"}), errUsage)
}

func TestRunEncode_unknownMethod(t *testing.T) {
	err := runEncode([]string{"-m", "rgbx", "in.exr", "out.png"})
	assert.ErrorIs(t, err, rgbx.ErrUnknownMethod)

	err = runEncode([]string{"-m", "rgbm", "-r", "0", "in.exr", "out.png"})
	assert.ErrorIs(t, err, rgbx.ErrInvalidRange)
}

func TestRun_exitCodes(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
		code int
	}{
		{name: "no_command", args: nil, code: 2},
		{name: "unknown_command", args: []string{"convert"}, code: 2},
		{name: "missing_output", args: []string{"encode", "in.exr"}, code: 2},
		{name: "unknown_method", args: []string{"decode", "-m", "rgbx", "in.png", "out.exr"}, code: 1},
		{name: "missing_input", args: []string{"encode", filepath.Join(t.TempDir(), "none.exr"), "out.png"}, code: 1},
		{name: "methods", args: []string{"methods"}, code: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, run(tc.args))
		})
	}
}

func TestRun_encodeDecode(t *testing.T) {
	dir := t.TempDir()
	src := rgbx.NewHDRImage(5, 3)
	for i := range src.Pix {
		src.Pix[i] = float32(i%7) * 0.9
	}

	var buf bytes.Buffer
	require.NoError(t, rgbx.EncodeEXR(&buf, src, rgbx.EXRCompressionZips))
	in := filepath.Join(dir, "src.exr")
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o600))

	encoded := filepath.Join(dir, "enc.png")
	decoded := filepath.Join(dir, "dec.exr")
	preview := filepath.Join(dir, "preview.png")

	require.Equal(t, 0, run([]string{"encode", "-m", "rgbe", "-workers", "2", in, encoded}))
	require.Equal(t, 0, run([]string{"decode", "-m", "rgbe", encoded, decoded}))
	require.Equal(t, 0, run([]string{"preview", "-m", "rgbe", "-exposure", "-1", encoded, preview}))

	for _, p := range []string{encoded, decoded, preview} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}
