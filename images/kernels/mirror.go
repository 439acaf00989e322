package kernels

import "github.com/nvr-ai/filterbox/images"

// Mirror overwrites the right half of every row with the reflection of the
// left half: column x is copied (RGBA) into column width-1-x for x < width/2.
// For odd widths the centre column is untouched.
func Mirror(img *images.Image) {
	w, h := img.Width, img.Height
	d := img.Data
	for y := 0; y < h; y++ {
		row := y * w * 4
		for x := 0; x < w/2; x++ {
			s := row + x*4
			o := row + (w-1-x)*4
			copy(d[o:o+4], d[s:s+4])
		}
	}
}

// FlipHorizontal reverses every row in place, the selfie-style presentation
// applied to webcam frames before filtering.
func FlipHorizontal(img *images.Image) {
	w, h := img.Width, img.Height
	d := img.Data
	var tmp [4]byte
	for y := 0; y < h; y++ {
		row := y * w * 4
		for x := 0; x < w/2; x++ {
			a := row + x*4
			b := row + (w-1-x)*4
			copy(tmp[:], d[a:a+4])
			copy(d[a:a+4], d[b:b+4])
			copy(d[b:b+4], tmp[:])
		}
	}
}
