package images

import (
	"bytes"
	"image"
	_ "image/gif" // Register GIF decoder.
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // Register BMP decoder.
	_ "golang.org/x/image/tiff" // Register TIFF decoder.
	_ "golang.org/x/image/webp" // Register WebP decoder.
)

// ErrUnsupportedFormat is returned for unknown encode formats or file extensions.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatBMP  ImageFormat = "bmp"
	FormatWebP ImageFormat = "webp"
	FormatTIFF ImageFormat = "tiff"
)

var extensionFormats = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".webp": FormatWebP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// FormatFromPath returns the format implied by a file extension.
func FormatFromPath(path string) (ImageFormat, bool) {
	f, ok := extensionFormats[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Decode reads an encoded image (any registered format) into an Image.
//
// Arguments:
//   - r: The encoded image stream.
//
// Returns:
//   - *Image: The decoded buffer at natural size.
//   - ImageFormat: The detected format.
//   - error: An error if decoding fails.
func Decode(r io.Reader) (*Image, ImageFormat, error) {
	src, name, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "image decoding failed")
	}
	img, err := FromImage(src)
	if err != nil {
		return nil, "", err
	}
	return img, ImageFormat(name), nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (*Image, ImageFormat, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes the image in the given format. Only PNG and JPEG are
// supported for output.
func Encode(w io.Writer, img *Image, format ImageFormat) error {
	if err := img.Validate(); err != nil {
		return err
	}
	switch format {
	case FormatPNG:
		return errors.Wrap(png.Encode(w, img.ToNRGBA()), "png encoding failed")
	case FormatJPEG:
		return errors.Wrap(jpeg.Encode(w, img.ToNRGBA(), &jpeg.Options{Quality: 90}), "jpeg encoding failed")
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "encode %q", format)
	}
}
