package kernels

import "github.com/nvr-ai/filterbox/images"

// Pixelate tiles the image into size x size blocks anchored at the origin
// (blocks on the right and bottom edges are clipped) and fills each block with
// the mean R, G and B of its in-bounds pixels. Alpha is unchanged.
//
// Blocks are disjoint and each is fully read before it is written, so no
// snapshot is needed. A size of 1 is the identity.
func Pixelate(img *images.Image, size int) {
	if size <= 1 {
		return
	}
	w, h := img.Width, img.Height
	d := img.Data

	for by := 0; by < h; by += size {
		ey := min(by+size, h)
		for bx := 0; bx < w; bx += size {
			ex := min(bx+size, w)

			var sumR, sumG, sumB uint64
			for y := by; y < ey; y++ {
				row := y * w * 4
				for x := bx; x < ex; x++ {
					off := row + x*4
					sumR += uint64(d[off+0])
					sumG += uint64(d[off+1])
					sumB += uint64(d[off+2])
				}
			}

			count := float64((ey - by) * (ex - bx))
			r := images.ClampByte(float64(sumR) / count)
			g := images.ClampByte(float64(sumG) / count)
			b := images.ClampByte(float64(sumB) / count)

			for y := by; y < ey; y++ {
				row := y * w * 4
				for x := bx; x < ex; x++ {
					off := row + x*4
					d[off+0] = r
					d[off+1] = g
					d[off+2] = b
				}
			}
		}
	}
}
