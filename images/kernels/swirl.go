package kernels

import (
	"math"

	"github.com/nvr-ai/filterbox/images"
)

// Swirl rotates pixels around the image centre. A destination pixel at
// distance dist < radius samples the source at the same distance with its
// polar angle advanced by (radius-dist)/radius*angle, so rotation is strongest
// at the centre and fades to zero at the rim. Sampling is nearest-neighbour
// (floored) and copies all four channels. Destinations whose rotated source
// falls outside the image, and all pixels at or beyond radius, are left as is.
//
// Arguments:
//   - img: The image to transform in place.
//   - radius: The swirl radius in pixels. Non-positive radii are a no-op.
//   - angle: The rotation in radians applied at the centre.
//   - pool: Optional scratch buffer pool (nil allocates).
func Swirl(img *images.Image, radius, angle float64, pool *Pool) {
	if !(radius > 0) {
		return
	}
	w, h := img.Width, img.Height
	src := pool.snapshot(img.Data)
	defer pool.putBytes(src)
	dst := img.Data

	cx := float64(w) / 2
	cy := float64(h) / 2

	for y := 0; y < h; y++ {
		dy := float64(y) - cy
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist >= radius {
				continue
			}

			theta := math.Atan2(dy, dx) + (radius-dist)/radius*angle
			sx := int(math.Floor(cx + dist*math.Cos(theta)))
			sy := int(math.Floor(cy + dist*math.Sin(theta)))
			if sx < 0 || sx >= w || sy < 0 || sy >= h {
				continue
			}

			s := (sy*w + sx) * 4
			o := (y*w + x) * 4
			copy(dst[o:o+4], src[s:s+4])
		}
	}
}
