// Package similarity scores how closely two pixel buffers match.
//
// The metric is a coarse per-byte tolerance count over every channel,
// alpha included. It is not perceptual.
package similarity

import (
	"fmt"

	"github.com/nvr-ai/filterbox/images"
	"github.com/pkg/errors"
)

// DefaultTolerance is the per-byte difference below which two bytes match.
const DefaultTolerance = 5

// ErrDimensionMismatch is returned when the buffers cannot be compared
// because their widths or heights differ.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Options controls a comparison.
type Options struct {
	// Tolerance is the exclusive per-byte threshold. Values below 1 use
	// DefaultTolerance.
	Tolerance int `json:"tolerance" yaml:"tolerance"`
}

func (o Options) tolerance() int {
	if o.Tolerance < 1 {
		return DefaultTolerance
	}
	return o.Tolerance
}

// Result is the outcome of a comparison.
type Result struct {
	// Score is the matching percentage in [0, 100].
	Score float64 `json:"score"`
	// Matches is the number of bytes within tolerance.
	Matches int `json:"matches"`
	// Total is the number of bytes compared.
	Total int `json:"total"`
	// Tolerance is the threshold that was applied.
	Tolerance int `json:"tolerance"`
}

// String formats the score to one decimal place.
func (r Result) String() string {
	return fmt.Sprintf("Match Score: %.1f%%", r.Score)
}

// Verdict classifies the score.
func (r Result) Verdict() string {
	switch {
	case r.Matches == r.Total:
		return "identical"
	case r.Score >= 95:
		return "close"
	case r.Score >= 75:
		return "partial"
	default:
		return "different"
	}
}

// Compare counts the bytes of a and b, across all four channels, whose
// absolute difference is strictly below the tolerance.
//
// Arguments:
//   - a: The first buffer.
//   - b: The second buffer.
//   - opts: The comparison options.
//
// Returns:
//   - Result: The match counts and percentage.
//   - error: ErrInvalidBuffer for a malformed buffer, ErrDimensionMismatch
//     when the sizes differ. No score is produced in either case.
func Compare(a, b *images.Image, opts Options) (Result, error) {
	if err := a.Validate(); err != nil {
		return Result{}, errors.Wrap(err, "first buffer")
	}
	if err := b.Validate(); err != nil {
		return Result{}, errors.Wrap(err, "second buffer")
	}
	if !a.SameSize(b) {
		return Result{}, errors.Wrapf(ErrDimensionMismatch, "%dx%d vs %dx%d",
			a.Width, a.Height, b.Width, b.Height)
	}

	tol := opts.tolerance()
	matches := 0
	for i, va := range a.Data {
		d := int(va) - int(b.Data[i])
		if d < 0 {
			d = -d
		}
		if d < tol {
			matches++
		}
	}

	total := len(a.Data)
	return Result{
		Score:     100 * float64(matches) / float64(total),
		Matches:   matches,
		Total:     total,
		Tolerance: tol,
	}, nil
}

// Score returns Compare's percentage.
func Score(a, b *images.Image, opts Options) (float64, error) {
	res, err := Compare(a, b, opts)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}
