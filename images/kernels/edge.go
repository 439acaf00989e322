package kernels

import (
	"math"

	"github.com/nvr-ai/filterbox/images"
)

// Sobel operators.
var (
	sobelX = [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// EdgeDetect renders a binary edge map. The image is reduced to luma (stored
// as bytes exactly as Grayscale would), the 3x3 Sobel operators are applied at
// every interior pixel, and a pixel becomes opaque black when the gradient
// magnitude sqrt(Gx²+Gy²) exceeds threshold, opaque white otherwise. Border
// pixels are always white. Every output alpha is 255.
//
// Arguments:
//   - img: The image to transform in place.
//   - threshold: The magnitude threshold.
//   - pool: Optional scratch buffer pool (nil allocates).
func EdgeDetect(img *images.Image, threshold float64, pool *Pool) {
	w, h := img.Width, img.Height
	d := img.Data

	gray := pool.getBytes(w * h)
	defer pool.putBytes(gray)
	for i, p := 0, 0; p < len(gray); i, p = i+4, p+1 {
		gray[p] = images.ClampByte(Luma(d[i], d[i+1], d[i+2]))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255)
			if y > 0 && y < h-1 && x > 0 && x < w-1 {
				var gx, gy int
				for ky := -1; ky <= 1; ky++ {
					row := (y + ky) * w
					for kx := -1; kx <= 1; kx++ {
						g := int(gray[row+x+kx])
						gx += g * sobelX[ky+1][kx+1]
						gy += g * sobelY[ky+1][kx+1]
					}
				}
				if math.Sqrt(float64(gx*gx+gy*gy)) > threshold {
					v = 0
				}
			}
			off := (y*w + x) * 4
			d[off+0] = v
			d[off+1] = v
			d[off+2] = v
			d[off+3] = 255
		}
	}
}
