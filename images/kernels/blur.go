package kernels

import (
	"github.com/nvr-ai/filterbox/images"
)

// BoxBlur replaces each pixel's R, G and B with the mean over the
// (2*radius+1)^2 window centred on it, clipped to the image: samples outside
// the bounds are dropped and the divisor shrinks with them. Alpha is unchanged.
//
// The window sum is separable, so this runs two sliding-window passes:
//   - Horizontal: per row, integer sums over [x-r, x+r] ∩ [0, w) into a
//     scratch buffer. Each step right subtracts the pixel leaving on the left
//     and adds the pixel entering on the right.
//   - Vertical: per column, the same over the horizontal sums, then one
//     division by the clipped window area.
//
// All reads of the source happen in the horizontal pass, before any write.
//
// Performance: O(W*H) per pass, independent of radius.
//
// Arguments:
//   - img: The image to blur in place.
//   - radius: The window half-width. Values below 1 are treated as 1.
//   - pool: Optional scratch buffer pool (nil allocates).
func BoxBlur(img *images.Image, radius int, pool *Pool) {
	if radius < 1 {
		radius = 1
	}
	w, h := img.Width, img.Height
	if w == 0 || h == 0 {
		return
	}

	// Three channel sums per pixel.
	rows := pool.getSums(w * h * 3)
	defer pool.putSums(rows)

	boxSumHoriz(img.Data, rows, w, h, radius)
	boxSumVert(rows, img.Data, w, h, radius)
}

// span returns how many of the indices [i-r, i+r] fall inside [0, n).
func span(i, r, n int) int {
	lo := i - r
	if lo < 0 {
		lo = 0
	}
	hi := i + r
	if hi > n-1 {
		hi = n - 1
	}
	return hi - lo + 1
}

// boxSumHoriz writes clipped horizontal window sums of src's RGB channels
// into dst (3 values per pixel).
func boxSumHoriz(src []byte, dst []uint32, w, h, r int) {
	for y := 0; y < h; y++ {
		srcRow := y * w * 4
		dstRow := y * w * 3

		var sumR, sumG, sumB uint32
		// Initial window for x=0 covers [0, r].
		for x := 0; x <= r && x < w; x++ {
			off := srcRow + x*4
			sumR += uint32(src[off+0])
			sumG += uint32(src[off+1])
			sumB += uint32(src[off+2])
		}

		for x := 0; x < w; x++ {
			o := dstRow + x*3
			dst[o+0] = sumR
			dst[o+1] = sumG
			dst[o+2] = sumB

			// Right sample enters at x + r + 1.
			if in := x + r + 1; in < w {
				off := srcRow + in*4
				sumR += uint32(src[off+0])
				sumG += uint32(src[off+1])
				sumB += uint32(src[off+2])
			}
			// Left sample exits at x - r.
			if out := x - r; out >= 0 {
				off := srcRow + out*4
				sumR -= uint32(src[off+0])
				sumG -= uint32(src[off+1])
				sumB -= uint32(src[off+2])
			}
		}
	}
}

// boxSumVert slides a vertical window over the horizontal sums and writes the
// clipped means into dst's RGB channels.
func boxSumVert(src []uint32, dst []byte, w, h, r int) {
	for x := 0; x < w; x++ {
		cx := span(x, r, w)

		var sumR, sumG, sumB uint64
		for y := 0; y <= r && y < h; y++ {
			o := (y*w + x) * 3
			sumR += uint64(src[o+0])
			sumG += uint64(src[o+1])
			sumB += uint64(src[o+2])
		}

		for y := 0; y < h; y++ {
			count := float64(cx * span(y, r, h))
			off := (y*w + x) * 4
			dst[off+0] = images.ClampByte(float64(sumR) / count)
			dst[off+1] = images.ClampByte(float64(sumG) / count)
			dst[off+2] = images.ClampByte(float64(sumB) / count)

			if in := y + r + 1; in < h {
				o := (in*w + x) * 3
				sumR += uint64(src[o+0])
				sumG += uint64(src[o+1])
				sumB += uint64(src[o+2])
			}
			if out := y - r; out >= 0 {
				o := (out*w + x) * 3
				sumR -= uint64(src[o+0])
				sumG -= uint64(src[o+1])
				sumB -= uint64(src[o+2])
			}
		}
	}
}
