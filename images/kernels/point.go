package kernels

import (
	"math"

	"github.com/nvr-ai/filterbox/images"
)

// Channel identifies one colour channel within an RGBA pixel.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Invert blends each colour channel towards its negative:
// out = (255-v)*s + v*(1-s). Strength is clamped to [0, 1]; at 1 the kernel
// is an exact involution. Alpha is unchanged.
func Invert(img *images.Image, strength float64) {
	s := math.Min(math.Max(strength, 0), 1)
	d := img.Data
	for i := 0; i < len(d); i += 4 {
		for c := i; c < i+3; c++ {
			v := float64(d[c])
			d[c] = images.ClampByte((255-v)*s + v*(1-s))
		}
	}
}

// Luma returns the weighted grayscale intensity of an RGB triple.
func Luma(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// Grayscale replaces R, G and B with the pixel's luma.
func Grayscale(img *images.Image) {
	d := img.Data
	for i := 0; i < len(d); i += 4 {
		y := images.ClampByte(Luma(d[i], d[i+1], d[i+2]))
		d[i], d[i+1], d[i+2] = y, y, y
	}
}

// RemoveChannel zeroes one colour channel.
func RemoveChannel(img *images.Image, ch Channel) {
	if ch < Red || ch > Blue {
		return
	}
	d := img.Data
	for i := int(ch); i < len(d); i += 4 {
		d[i] = 0
	}
}

// quantizeLevel maps [0,85) to 0, [85,170) to 128 and [170,255] to 255.
func quantizeLevel(v uint8) uint8 {
	switch {
	case v < 85:
		return 0
	case v < 170:
		return 128
	default:
		return 255
	}
}

// ComicBook posterizes every colour channel to three levels.
func ComicBook(img *images.Image) {
	d := img.Data
	for i := 0; i < len(d); i += 4 {
		d[i+0] = quantizeLevel(d[i+0])
		d[i+1] = quantizeLevel(d[i+1])
		d[i+2] = quantizeLevel(d[i+2])
	}
}

// Colour fade per-channel frequency multipliers.
const (
	fadeFreqR = 1.0
	fadeFreqG = 1.3
	fadeFreqB = 1.6
)

// ColorFade scales each colour channel by 0.5+0.5*sin(phase*freq) with
// frequencies 1.0, 1.3 and 1.6 for R, G and B. It renders a single phase and
// holds no state; advancing the phase is the caller's concern.
func ColorFade(img *images.Image, phase float64) {
	fr := 0.5 + 0.5*math.Sin(phase*fadeFreqR)
	fg := 0.5 + 0.5*math.Sin(phase*fadeFreqG)
	fb := 0.5 + 0.5*math.Sin(phase*fadeFreqB)
	d := img.Data
	for i := 0; i < len(d); i += 4 {
		d[i+0] = images.ClampByte(float64(d[i+0]) * fr)
		d[i+1] = images.ClampByte(float64(d[i+1]) * fg)
		d[i+2] = images.ClampByte(float64(d[i+2]) * fb)
	}
}
