package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vearutop/rgbx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes a subcommand and returns the process exit code.
func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}

	logger, err := newLogger()
	if err != nil {
		return fail(err)
	}
	defer func() { _ = logger.Sync() }()
	rgbx.SetLogger(logger)

	switch args[0] {
	case "encode":
		err = runEncode(args[1:])
	case "decode":
		err = runDecode(args[1:])
	case "preview":
		err = runPreview(args[1:])
	case "methods":
		fmt.Fprintln(os.Stdout, strings.Join(rgbx.Methods(), "\n"))
	default:
		usage()
		return 2
	}

	if errors.Is(err, flag.ErrHelp) || errors.Is(err, errUsage) {
		return 2
	}
	if err != nil {
		return fail(err)
	}
	return 0
}

var errUsage = errors.New("usage")

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: rgbx <command> [args]")
	fmt.Fprintln(os.Stderr, "encode/decode images into rgbm, rgbd, rgbd2 or rgbe png/tiff")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  encode  [-m rgbm] [-r 8] [-workers 0] [-err error.exr] input.exr output.png")
	fmt.Fprintln(os.Stderr, "  decode  [-m rgbm] [-r 8] [-workers 0] input.png output.exr")
	fmt.Fprintln(os.Stderr, "  preview [-m method] [-r 8] [-exposure 0] [-w 0] input output.png")
	fmt.Fprintln(os.Stderr, "  methods")
}

type methodFlags struct {
	method  *string
	rng     *float64
	workers *int
}

func addMethodFlags(fs *flag.FlagSet, defaultMethod string) methodFlags {
	return methodFlags{
		method:  fs.String("m", defaultMethod, "encoding method: "+strings.Join(rgbx.Methods(), ", ")),
		rng:     fs.Float64("r", rgbx.DefaultRange, "range for rgbm and rgbd2"),
		workers: fs.Int("workers", 0, "scanline workers, 0 for GOMAXPROCS"),
	}
}

func (m methodFlags) operator() (rgbx.Operator, error) {
	return rgbx.NewOperator(*m.method, *m.rng)
}

func parseIO(fs *flag.FlagSet, args []string) (string, string, error) {
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return "", "", errUsage
	}
	return fs.Arg(0), fs.Arg(1), nil
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	mf := addMethodFlags(fs, rgbx.MethodRGBM)
	errOut := fs.String("err", "", "write absolute error map OpenEXR")
	fs.SetOutput(os.Stderr)
	in, out, err := parseIO(fs, args)
	if err != nil {
		return err
	}
	op, err := mf.operator()
	if err != nil {
		return err
	}
	return rgbx.EncodeFile(in, out, op, func(o *rgbx.FileOptions) {
		o.Workers = *mf.workers
		o.ErrorOut = *errOut
	})
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	mf := addMethodFlags(fs, rgbx.MethodRGBM)
	fs.SetOutput(os.Stderr)
	in, out, err := parseIO(fs, args)
	if err != nil {
		return err
	}
	op, err := mf.operator()
	if err != nil {
		return err
	}
	return rgbx.DecodeFile(in, out, op, func(o *rgbx.FileOptions) {
		o.Workers = *mf.workers
	})
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	mf := addMethodFlags(fs, "")
	exposure := fs.Float64("exposure", 0, "exposure in stops")
	width := fs.Uint("w", 0, "max output width, 0 keeps source size")
	fs.SetOutput(os.Stderr)
	in, out, err := parseIO(fs, args)
	if err != nil {
		return err
	}

	// Without -m the input is an HDR source.
	var op rgbx.Operator
	if *mf.method != "" {
		if op, err = mf.operator(); err != nil {
			return err
		}
	}
	return rgbx.PreviewFile(in, out, op, float32(*exposure), *width)
}

func newLogger() (*zap.Logger, error) {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, "error:", err)
	return 1
}
