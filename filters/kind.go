// Package filters binds the pixel kernels to their string identifiers,
// default configurations and parameter descriptors, and composes them into
// an ordered, fixed-capacity pipeline of slots.
package filters

// Kind is the closed set of filter kernels. The string form is the wire
// identifier used in persisted configurations.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvert
	KindGrayscale
	KindNoRed
	KindNoGreen
	KindNoBlue
	KindComicBook
	KindPixelate
	KindBlur
	KindSpiral
	KindMirror
	KindEdgeDetect
	KindColorFade

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:    "",
	KindInvert:     "invert",
	KindGrayscale:  "grayscale",
	KindNoRed:      "noRed",
	KindNoGreen:    "noGreen",
	KindNoBlue:     "noBlue",
	KindComicBook:  "comicBook",
	KindPixelate:   "pixelate",
	KindBlur:       "blur",
	KindSpiral:     "spiral",
	KindMirror:     "mirror",
	KindEdgeDetect: "edgeDetect",
	KindColorFade:  "colorFade",
}

// kindAliases are accepted on input only.
var kindAliases = map[string]Kind{
	"swirl": KindSpiral,
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := KindInvert; k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// String returns the wire identifier.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return ""
	}
	return kindNames[k]
}

// ParseKind resolves a wire identifier (or alias) to a Kind.
func ParseKind(id string) (Kind, bool) {
	if k, ok := kindsByName[id]; ok {
		return k, true
	}
	if k, ok := kindAliases[id]; ok {
		return k, true
	}
	return KindUnknown, false
}
