// Package rgbx converts linear HDR pixel data to and from 8-bit RGBM, RGBD and RGBE
// representations.
//
// Every encoding stores three color bytes and a fourth byte shared by the pixel
// (a multiplier, a divisor or an exponent) that restores the dynamic range lost by
// 8-bit quantization. Encoded images are kept as non-premultiplied *image.NRGBA;
// the alpha channel carries scale data, not transparency.
package rgbx
