// Package images - RGBA pixel buffer definition and conversions for filter processing.
package images

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidBuffer is returned when an Image does not satisfy
// len(Data) == Width*Height*4 with positive dimensions.
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// Image represents an interleaved 8-bit RGBA pixel buffer.
//
// Pixel (x, y) occupies Data[(y*Width+x)*4 : (y*Width+x)*4+4] in R, G, B, A order.
// Values are straight (non-premultiplied) alpha, as read back from a canvas.
type Image struct {
	// The RGBA data of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// New allocates a zeroed (transparent black) image of the given dimensions.
//
// Arguments:
//   - width: The width in pixels, must be > 0.
//   - height: The height in pixels, must be > 0.
//
// Returns:
//   - *Image: The allocated image.
//   - error: ErrInvalidBuffer if either dimension is not positive.
func New(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidBuffer, "dimensions %dx%d", width, height)
	}
	return &Image{
		Data:   make([]byte, width*height*4),
		Width:  width,
		Height: height,
	}, nil
}

// FromPixels wraps an existing RGBA byte slice without copying it.
func FromPixels(width, height int, data []byte) (*Image, error) {
	img := &Image{Data: data, Width: width, Height: height}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate checks the buffer invariant.
func (img *Image) Validate() error {
	if img == nil {
		return errors.Wrap(ErrInvalidBuffer, "image is nil")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return errors.Wrapf(ErrInvalidBuffer, "dimensions %dx%d", img.Width, img.Height)
	}
	if len(img.Data) != img.Width*img.Height*4 {
		return errors.Wrapf(ErrInvalidBuffer, "data length %d, want %d",
			len(img.Data), img.Width*img.Height*4)
	}
	return nil
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	data := make([]byte, len(img.Data))
	copy(data, img.Data)
	return &Image{Data: data, Width: img.Width, Height: img.Height}
}

// SameSize reports whether two images share width and height.
func (img *Image) SameSize(other *Image) bool {
	return img.Width == other.Width && img.Height == other.Height
}

// Offset returns the index of the red byte of pixel (x, y).
func (img *Image) Offset(x, y int) int {
	return (y*img.Width + x) * 4
}

// At returns the RGBA value of pixel (x, y).
func (img *Image) At(x, y int) color.NRGBA {
	i := img.Offset(x, y)
	p := img.Data[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set writes the RGBA value of pixel (x, y).
func (img *Image) Set(x, y int, c color.NRGBA) {
	i := img.Offset(x, y)
	img.Data[i+0] = c.R
	img.Data[i+1] = c.G
	img.Data[i+2] = c.B
	img.Data[i+3] = c.A
}

// Fill sets every pixel to c.
func (img *Image) Fill(c color.NRGBA) {
	for i := 0; i < len(img.Data); i += 4 {
		img.Data[i+0] = c.R
		img.Data[i+1] = c.G
		img.Data[i+2] = c.B
		img.Data[i+3] = c.A
	}
}

// FromImage converts any image.Image into an Image with straight alpha.
//
// *image.NRGBA and *image.RGBA with zero-origin bounds and tight stride are
// copied directly; everything else goes through image/draw.
//
// Arguments:
//   - src: The source image.
//
// Returns:
//   - *Image: A newly allocated buffer.
//   - error: ErrInvalidBuffer for empty bounds.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	dst, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	if n, ok := src.(*image.NRGBA); ok && n.Stride == b.Dx()*4 && b.Min == (image.Point{}) {
		copy(dst.Data, n.Pix)
		return dst, nil
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Rect, src, b.Min, draw.Src)
	copy(dst.Data, nrgba.Pix)
	return dst, nil
}

// ToNRGBA returns a standard library view of the buffer. The pixel slice is
// shared; mutating one mutates the other.
func (img *Image) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Data,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// ClampByte converts a float64 channel value to a byte the way a browser's
// clamped byte array stores it: NaN becomes 0, values saturate at [0, 255]
// and are rounded to nearest with ties to even.
func ClampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
