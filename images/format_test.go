package images

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := map[string]ImageFormat{
		"a.png":      FormatPNG,
		"b.JPG":      FormatJPEG,
		"c.jpeg":     FormatJPEG,
		"dir/d.webp": FormatWebP,
		"e.bmp":      FormatBMP,
		"f.tif":      FormatTIFF,
		"g.gif":      FormatGIF,
	}
	for path, want := range tests {
		got, ok := FormatFromPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := FormatFromPath("notes.txt")
	assert.False(t, ok)
}

func TestEncodeDecodePNGIsLossless(t *testing.T) {
	img, err := New(5, 4)
	require.NoError(t, err)
	for i := range img.Data {
		img.Data[i] = byte(i * 7)
	}
	for i := 3; i < len(img.Data); i += 4 {
		img.Data[i] = 255
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, FormatPNG))

	decoded, format, err := DecodeBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, format)
	assert.Equal(t, img.Data, decoded.Data)
}

func TestEncodeDecodeJPEG(t *testing.T) {
	img := getTestImage(t, 16, 16)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, FormatJPEG))

	decoded, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, format)
	assert.Equal(t, 16, decoded.Width)
	c := decoded.At(8, 8)
	assert.InDelta(t, 255, int(c.R), 8)
	assert.Equal(t, uint8(255), c.A)
}

func TestEncodeUnsupported(t *testing.T) {
	img := getTestImage(t, 2, 2)
	err := Encode(&bytes.Buffer{}, img, FormatWebP)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := DecodeBytes([]byte("not an image"))
	assert.Error(t, err)
}
