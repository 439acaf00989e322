package images

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// AspectRatio names a frame aspect ratio (e.g., "16:9").
type AspectRatio string

// Aspect ratios offered by common webcams.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
)

// Resolution is a named capture size.
type Resolution struct {
	Name        string      `json:"name" yaml:"name"`
	AspectRatio AspectRatio `json:"aspectRatio" yaml:"aspectRatio"`
	Width       int         `json:"width" yaml:"width"`
	Height      int         `json:"height" yaml:"height"`
}

// MegaPixels returns width*height in megapixels rounded to two decimal places
// (e.g., 0.31 for VGA). Non-positive dimensions yield 0.
func (r Resolution) MegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.MegaPixels())
}

// resolutions holds the capture sizes a webcam is commonly asked for, keyed by
// lower-case name.
var resolutions = map[string]Resolution{
	"qvga":  {Name: "qvga", AspectRatio: AspectRatio43, Width: 320, Height: 240},
	"vga":   {Name: "vga", AspectRatio: AspectRatio43, Width: 640, Height: 480},
	"svga":  {Name: "svga", AspectRatio: AspectRatio43, Width: 800, Height: 600},
	"nhd":   {Name: "nhd", AspectRatio: AspectRatio169, Width: 640, Height: 360},
	"540p":  {Name: "540p", AspectRatio: AspectRatio169, Width: 960, Height: 540},
	"720p":  {Name: "720p", AspectRatio: AspectRatio169, Width: 1280, Height: 720},
	"1080p": {Name: "1080p", AspectRatio: AspectRatio169, Width: 1920, Height: 1080},
}

// Resolutions returns every named resolution ordered by pixel count, smallest
// first.
func Resolutions() []Resolution {
	all := make([]Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Width*all[i].Height < all[j].Width*all[j].Height
	})
	return all
}

// LookupResolution finds a resolution by name, ignoring case.
func LookupResolution(name string) (Resolution, bool) {
	res, ok := resolutions[strings.ToLower(strings.TrimSpace(name))]
	return res, ok
}

// LargestResolutionWithin returns the largest named resolution that fits
// inside width x height.
//
// Arguments:
//   - width: The maximum width.
//   - height: The maximum height.
//
// Returns:
//   - Resolution: The largest fitting resolution.
//   - bool: False when none fits.
func LargestResolutionWithin(width, height int) (Resolution, bool) {
	var best Resolution
	var found bool
	for _, res := range resolutions {
		if res.Width > width || res.Height > height {
			continue
		}
		if !found || res.Width*res.Height > best.Width*best.Height {
			best = res
			found = true
		}
	}
	return best, found
}
