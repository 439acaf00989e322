package kernels

import (
	"image/color"
	"math"
	"testing"

	"github.com/nvr-ai/filterbox/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixels(t *testing.T, w, h int, px ...[4]byte) *images.Image {
	t.Helper()
	require.Len(t, px, w*h)
	data := make([]byte, 0, w*h*4)
	for _, p := range px {
		data = append(data, p[:]...)
	}
	img, err := images.FromPixels(w, h, data)
	require.NoError(t, err)
	return img
}

func TestInvertInvolution(t *testing.T) {
	src := genImage(9, 7, 11)
	img := src.Clone()

	Invert(img, 1)
	assert.NotEqual(t, src.Data, img.Data)
	Invert(img, 1)
	assert.Equal(t, src.Data, img.Data)
}

func TestInvertStrength(t *testing.T) {
	img := pixels(t, 1, 1, [4]byte{100, 0, 255, 200})

	Invert(img, 0.5)

	// (155*0.5 + 100*0.5) = 127.5 rounds to even.
	assert.Equal(t, []byte{128, 128, 128, 200}, img.Data)
}

func TestInvertClampsStrength(t *testing.T) {
	a := pixels(t, 1, 1, [4]byte{10, 20, 30, 255})
	b := a.Clone()
	Invert(a, 7)
	Invert(b, 1)
	assert.Equal(t, b.Data, a.Data)

	c := pixels(t, 1, 1, [4]byte{10, 20, 30, 255})
	Invert(c, -1)
	assert.Equal(t, []byte{10, 20, 30, 255}, c.Data)
}

func TestGrayscale(t *testing.T) {
	img := pixels(t, 2, 1, [4]byte{255, 0, 0, 255}, [4]byte{10, 200, 30, 128})

	Grayscale(img)

	// 0.299*255 = 76.245; 0.299*10+0.587*200+0.114*30 = 123.81.
	assert.Equal(t, []byte{76, 76, 76, 255, 124, 124, 124, 128}, img.Data)
}

func TestGrayscaleIdempotent(t *testing.T) {
	once := genImage(16, 16, 5)
	Grayscale(once)
	twice := once.Clone()
	Grayscale(twice)
	assert.Equal(t, once.Data, twice.Data)
}

func TestRemoveChannelScenario(t *testing.T) {
	img := pixels(t, 4, 1,
		[4]byte{200, 10, 10, 255},
		[4]byte{10, 200, 10, 255},
		[4]byte{10, 10, 200, 255},
		[4]byte{50, 50, 50, 255},
	)

	RemoveChannel(img, Red)

	want := pixels(t, 4, 1,
		[4]byte{0, 10, 10, 255},
		[4]byte{0, 200, 10, 255},
		[4]byte{0, 10, 200, 255},
		[4]byte{0, 50, 50, 255},
	)
	assert.Equal(t, want.Data, img.Data)
}

func TestRemoveChannelIdempotentAndCommutative(t *testing.T) {
	src := genImage(8, 8, 13)
	channels := []Channel{Red, Green, Blue}

	for _, a := range channels {
		once := src.Clone()
		RemoveChannel(once, a)
		twice := once.Clone()
		RemoveChannel(twice, a)
		assert.Equal(t, once.Data, twice.Data, "channel %d", a)

		for _, b := range channels {
			ab := src.Clone()
			RemoveChannel(ab, a)
			RemoveChannel(ab, b)
			ba := src.Clone()
			RemoveChannel(ba, b)
			RemoveChannel(ba, a)
			assert.Equal(t, ab.Data, ba.Data, "channels %d,%d", a, b)
		}
	}
}

func TestRemoveChannelIgnoresAlphaIndex(t *testing.T) {
	img := pixels(t, 1, 1, [4]byte{1, 2, 3, 4})
	RemoveChannel(img, Channel(3))
	assert.Equal(t, []byte{1, 2, 3, 4}, img.Data)
}

func TestComicBook(t *testing.T) {
	cases := []struct {
		in, want byte
	}{
		{40, 0}, {84, 0}, {85, 128}, {90, 128}, {169, 128}, {170, 255}, {200, 255},
	}
	for _, tc := range cases {
		img := pixels(t, 1, 1, [4]byte{tc.in, tc.in, tc.in, 255})
		ComicBook(img)
		assert.Equal(t, []byte{tc.want, tc.want, tc.want, 255}, img.Data, "input %d", tc.in)
	}
}

func TestPixelateSizeOneIsIdentity(t *testing.T) {
	src := genImage(10, 6, 17)
	img := src.Clone()
	Pixelate(img, 1)
	assert.Equal(t, src.Data, img.Data)
}

func TestPixelateClipsEdgeBlocks(t *testing.T) {
	img := pixels(t, 3, 1,
		[4]byte{10, 0, 0, 255},
		[4]byte{20, 0, 0, 100},
		[4]byte{90, 0, 0, 50},
	)

	Pixelate(img, 2)

	// Block [0,2) averages to 15; the clipped block [2,3) keeps its own value.
	assert.Equal(t, []byte{15, 0, 0, 255, 15, 0, 0, 100, 90, 0, 0, 50}, img.Data)
}

func TestPixelateBlocksAreUniform(t *testing.T) {
	img := genImage(13, 9, 23)
	Pixelate(img, 4)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			anchor := img.At(x-x%4, y-y%4)
			c := img.At(x, y)
			require.Equal(t, anchor.R, c.R)
			require.Equal(t, anchor.G, c.G)
			require.Equal(t, anchor.B, c.B)
		}
	}
}

func TestSwirlLeavesOutsideRadiusUntouched(t *testing.T) {
	src := genImage(40, 30, 29)
	img := src.Clone()
	radius := 8.0

	Swirl(img, radius, 2.0, nil)

	cx, cy := 20.0, 15.0
	changed := 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if math.Hypot(float64(x)-cx, float64(y)-cy) >= radius {
				require.Equal(t, src.At(x, y), img.At(x, y), "pixel %d,%d", x, y)
			} else if src.At(x, y) != img.At(x, y) {
				changed++
			}
		}
	}
	assert.Positive(t, changed)
}

func TestSwirlNonPositiveRadiusIsNoop(t *testing.T) {
	src := genImage(10, 10, 31)
	for _, r := range []float64{0, -5, math.NaN()} {
		img := src.Clone()
		Swirl(img, r, 3, nil)
		assert.Equal(t, src.Data, img.Data)
	}
}

func TestSwirlCopiesAlpha(t *testing.T) {
	img := genImage(21, 21, 37)
	for i := 3; i < len(img.Data); i += 4 {
		img.Data[i] = uint8(i / 4 % 256)
	}
	src := img.Clone()

	Swirl(img, 10, 1.5, nil)

	// Every output pixel inside the radius is a copy of some source pixel.
	seen := make(map[[4]byte]bool, src.Width*src.Height)
	for i := 0; i < len(src.Data); i += 4 {
		seen[[4]byte(src.Data[i:i+4])] = true
	}
	for i := 0; i < len(img.Data); i += 4 {
		require.True(t, seen[[4]byte(img.Data[i:i+4])], "pixel %d is not a source copy", i/4)
	}
}

// swirlSource returns the pixel that destination (x, y) samples, or false
// when the destination is outside the radius or samples off the image.
func swirlSource(w, h, x, y int, radius, angle float64) (int, int, bool) {
	cx, cy := float64(w)/2, float64(h)/2
	dx, dy := float64(x)-cx, float64(y)-cy
	dist := math.Hypot(dx, dy)
	if dist >= radius {
		return 0, 0, false
	}
	theta := math.Atan2(dy, dx) + (radius-dist)/radius*angle
	sx := int(math.Floor(cx + dist*math.Cos(theta)))
	sy := int(math.Floor(cy + dist*math.Sin(theta)))
	if sx < 0 || sx >= w || sy < 0 || sy >= h {
		return 0, 0, false
	}
	return sx, sy, true
}

func TestSwirlMatchesReference(t *testing.T) {
	cases := []struct {
		w, h          int
		radius, angle float64
	}{
		{31, 17, 150, 2},
		{40, 30, 8, 2},
		{16, 16, 6, -1.25},
		{9, 25, 12, 4.5},
		{1, 1, 3, 1},
	}
	for _, tc := range cases {
		src := genImage(tc.w, tc.h, int64(tc.w*tc.h))
		img := src.Clone()

		Swirl(img, tc.radius, tc.angle, nil)

		for y := 0; y < tc.h; y++ {
			for x := 0; x < tc.w; x++ {
				want := src.At(x, y)
				if sx, sy, ok := swirlSource(tc.w, tc.h, x, y, tc.radius, tc.angle); ok {
					want = src.At(sx, sy)
				}
				require.Equal(t, want, img.At(x, y), "%dx%d r=%v a=%v pixel %d,%d",
					tc.w, tc.h, tc.radius, tc.angle, x, y)
			}
		}
	}
}

func TestSwirlKeepsPixelsWithSourceOffImage(t *testing.T) {
	// The radius covers the whole frame, so every skipped pixel is one whose
	// rotated source lands outside the image.
	w, h := 31, 17
	src := genImage(w, h, 41)
	img := src.Clone()

	Swirl(img, 150, 2, nil)

	kept := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if _, _, ok := swirlSource(w, h, x, y, 150, 2); !ok {
				require.Equal(t, src.At(x, y), img.At(x, y), "pixel %d,%d", x, y)
				kept++
			}
		}
	}
	assert.Positive(t, kept)
	assert.Less(t, kept, w*h)
}

func TestSwirlHandComputed(t *testing.T) {
	// Each pixel's red channel holds its index, so the output names its source.
	px := make([][4]byte, 16)
	for i := range px {
		px[i] = [4]byte{byte(i), 0, 0, 255}
	}
	img := pixels(t, 4, 4, px...)

	// Centre (2,2), radius 2, half a turn at the centre.
	Swirl(img, 2, math.Pi, nil)

	source := func(x, y int) int { return int(img.At(x, y).R) }
	assert.Equal(t, 2*4+2, source(2, 2), "the centre maps to itself")
	assert.Equal(t, 2*4+3, source(2, 1), "(2,1) samples (3,2)")
	assert.Equal(t, 3*4+2, source(3, 2), "(3,2) samples (2,3)")
	assert.Equal(t, 2*4+1, source(2, 3), "(2,3) samples (1,2)")
	assert.Equal(t, 0*4+2, source(1, 1), "(1,1) samples (2,0)")
	assert.Equal(t, 2*4+3, source(3, 1), "(3,1) samples (3,2)")
	assert.Equal(t, 3*4+1, source(3, 3), "(3,3) samples (1,3)")
	assert.Equal(t, 1*4+0, source(1, 3), "(1,3) samples (0,1)")
	for _, p := range [][2]int{{0, 0}, {2, 0}, {0, 2}, {3, 0}, {0, 3}} {
		assert.Equal(t, p[1]*4+p[0], source(p[0], p[1]), "pixel %v is outside the radius", p)
	}
}

func TestMirror(t *testing.T) {
	for _, w := range []int{1, 4, 5} {
		src := genImage(w, 3, int64(w))
		img := src.Clone()

		Mirror(img)

		for y := 0; y < img.Height; y++ {
			for x := 0; x < w/2; x++ {
				assert.Equal(t, src.At(x, y), img.At(w-1-x, y))
				assert.Equal(t, src.At(x, y), img.At(x, y))
			}
		}
	}
}

func TestFlipHorizontalTwiceRestores(t *testing.T) {
	src := genImage(7, 4, 41)
	img := src.Clone()
	FlipHorizontal(img)
	assert.Equal(t, src.At(0, 2), img.At(6, 2))
	FlipHorizontal(img)
	assert.Equal(t, src.Data, img.Data)
}

func TestEdgeDetectUniformIsWhite(t *testing.T) {
	img := genImage(6, 5, 1)
	img.Fill(color.NRGBA{R: 90, G: 40, B: 10, A: 17})

	EdgeDetect(img, 50, nil)

	for i := 0; i < len(img.Data); i += 4 {
		require.Equal(t, []byte{255, 255, 255, 255}, img.Data[i:i+4])
	}
}

func TestEdgeDetectStep(t *testing.T) {
	w, h := 8, 5
	img, err := images.New(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if x >= w/2 {
				v = 255
			}
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	EdgeDetect(img, 50, nil)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(x, y)
			assert.Equal(t, uint8(255), c.A)
			border := y == 0 || y == h-1 || x == 0 || x == w-1
			onEdge := x == w/2-1 || x == w/2
			if !border && onEdge {
				assert.Equal(t, uint8(0), c.R, "pixel %d,%d should be an edge", x, y)
			} else {
				assert.Equal(t, uint8(255), c.R, "pixel %d,%d should be white", x, y)
			}
		}
	}
}

func TestColorFade(t *testing.T) {
	img := pixels(t, 1, 1, [4]byte{200, 200, 200, 77})
	ColorFade(img, 0)
	assert.Equal(t, []byte{100, 100, 100, 77}, img.Data)

	img = pixels(t, 1, 1, [4]byte{200, 200, 200, 77})
	ColorFade(img, math.Pi/2)
	assert.Equal(t, uint8(200), img.Data[0])
	assert.Equal(t, uint8(77), img.Data[3])
}

func TestKernelsArePure(t *testing.T) {
	apply := map[string]func(*images.Image){
		"invert":    func(i *images.Image) { Invert(i, 0.3) },
		"grayscale": Grayscale,
		"comic":     ComicBook,
		"pixelate":  func(i *images.Image) { Pixelate(i, 3) },
		"blur":      func(i *images.Image) { BoxBlur(i, 2, nil) },
		"swirl":     func(i *images.Image) { Swirl(i, 6, 2, nil) },
		"mirror":    Mirror,
		"edge":      func(i *images.Image) { EdgeDetect(i, 50, nil) },
	}
	src := genImage(15, 11, 99)
	for name, fn := range apply {
		a, b := src.Clone(), src.Clone()
		fn(a)
		fn(b)
		assert.Equal(t, a.Data, b.Data, name)
	}
}
