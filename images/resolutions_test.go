package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionMegaPixels(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resolution
		expected float64
	}{
		{name: "vga", res: Resolution{Width: 640, Height: 480}, expected: 0.31},
		{name: "1080p", res: Resolution{Width: 1920, Height: 1080}, expected: 2.07},
		{name: "zero width", res: Resolution{Width: 0, Height: 1080}, expected: 0},
		{name: "negative height", res: Resolution{Width: 1920, Height: -1}, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.res.MegaPixels(), 1e-9)
		})
	}
}

func TestLookupResolution(t *testing.T) {
	res, ok := LookupResolution(" 720P ")
	require.True(t, ok)
	assert.Equal(t, 1280, res.Width)
	assert.Equal(t, 720, res.Height)
	assert.Equal(t, AspectRatio169, res.AspectRatio)
	assert.Equal(t, "720p (1280x720, 0.92MP)", res.String())

	_, ok = LookupResolution("8k")
	assert.False(t, ok)
}

func TestResolutionsOrdered(t *testing.T) {
	all := Resolutions()
	require.NotEmpty(t, all)
	assert.Equal(t, "qvga", all[0].Name)
	assert.Equal(t, "1080p", all[len(all)-1].Name)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Width*all[i-1].Height, all[i].Width*all[i].Height)
	}
}

func TestLargestResolutionWithin(t *testing.T) {
	res, ok := LargestResolutionWithin(1000, 700)
	require.True(t, ok)
	assert.Equal(t, "540p", res.Name)

	res, ok = LargestResolutionWithin(640, 480)
	require.True(t, ok)
	assert.Equal(t, "vga", res.Name)

	_, ok = LargestResolutionWithin(100, 100)
	assert.False(t, ok)
}
