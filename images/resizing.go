package images

import (
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Resize scales the image to exactly width x height using bilinear
// interpolation, the closest match to a canvas drawImage scale.
//
// Arguments:
//   - img: The source image.
//   - width: The target width in pixels.
//   - height: The target height in pixels.
//
// Returns:
//   - *Image: A new image of the requested size. When the size already matches
//     a copy is returned so callers always own the result.
//   - error: ErrInvalidBuffer for non-positive target dimensions.
func Resize(img *Image, width, height int) (*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidBuffer, "resize target %dx%d", width, height)
	}
	if img.Width == width && img.Height == height {
		return img.Clone(), nil
	}

	scaled := resize.Resize(uint(width), uint(height), img.ToNRGBA(), resize.Bilinear)
	return FromImage(scaled)
}
