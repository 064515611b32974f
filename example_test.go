package rgbx_test

import (
	"fmt"

	"github.com/vearutop/rgbx"
)

func ExampleNewOperator() {
	op, err := rgbx.NewOperator("rgbm", rgbx.DefaultRange)
	if err != nil {
		return
	}

	enc := op.Encode([3]float32{4, 2, 0})
	fmt.Println(enc)

	// Output:
	// [254 127 0 128]
}

func ExampleRGBE() {
	op := rgbx.NewRGBE()
	enc := op.Encode([3]float32{1, 1, 1})
	fmt.Println(enc, op.Decode(enc))

	// Output:
	// [128 128 128 129] [1 1 1]
}

func ExampleEncode() {
	img := rgbx.NewHDRImage(2, 1)
	img.Set(1, 0, [3]float32{0.5, 1.5, 3})

	enc, err := rgbx.Encode(img, rgbx.NewRGBD())
	if err != nil {
		return
	}
	fmt.Println(enc.Pix)

	// Output:
	// [0 0 0 255 43 128 255 85]
}
