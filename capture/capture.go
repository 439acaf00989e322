// Package capture provides frame sources for the render loop.
package capture

import (
	"context"
	"sync"

	"github.com/nvr-ai/filterbox/images"
	"github.com/nvr-ai/filterbox/images/kernels"
	"github.com/nvr-ai/filterbox/util"
	"github.com/pkg/errors"
)

// ErrClosed is returned by Read once a source is closed or exhausted.
var ErrClosed = errors.New("capture source closed")

// Source yields frames on demand. Every frame of one source has the same
// dimensions. Sources are safe for concurrent use.
type Source interface {
	// Read returns the next frame. The caller owns the returned buffer.
	Read(ctx context.Context) (*images.Image, error)
	// Size returns the frame dimensions.
	Size() (width, height int)
	Close() error
}

// Options are shared by all sources.
type Options struct {
	// Mirror flips every frame horizontally, the way a selfie preview is
	// shown.
	Mirror bool
	// Width and Height force the frame size. Zero keeps the natural size of
	// the first frame.
	Width  int
	Height int
}

// Still repeats a single image.
type Still struct {
	mu     sync.Mutex
	frame  *images.Image
	closed bool
}

// NewStill creates a source that yields copies of img.
func NewStill(img *images.Image, opts Options) (*Still, error) {
	frame, err := prepare(img, opts)
	if err != nil {
		return nil, err
	}
	return &Still{frame: frame}, nil
}

// Read returns a copy of the image.
func (s *Still) Read(ctx context.Context) (*images.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.frame.Clone(), nil
}

// Size returns the image dimensions.
func (s *Still) Size() (int, int) {
	return s.frame.Width, s.frame.Height
}

// Close stops the source.
func (s *Still) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Sequence plays a fixed list of frames, optionally looping.
type Sequence struct {
	mu     sync.Mutex
	frames []*images.Image
	next   int
	loop   bool
	closed bool
}

// NewSequence creates a source over frames. Frames whose size differs from
// the first (or from the forced size) are scaled to match.
func NewSequence(frames []*images.Image, loop bool, opts Options) (*Sequence, error) {
	if len(frames) == 0 {
		return nil, errors.New("sequence has no frames")
	}
	seq := &Sequence{frames: make([]*images.Image, len(frames)), loop: loop}
	for i, f := range frames {
		frame, err := prepare(f, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		seq.frames[i] = frame
		if i == 0 {
			opts.Width, opts.Height = frame.Width, frame.Height
		}
	}
	return seq, nil
}

// OpenDirectory creates a sequence from the image files in dir, ordered by
// frame number.
func OpenDirectory(dir string, loop bool, opts Options) (*Sequence, error) {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return nil, err
	}
	frames := make([]*images.Image, 0, len(files))
	for _, f := range files {
		img, _, err := images.DecodeBytes(f.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", f.Path)
		}
		frames = append(frames, img)
	}
	return NewSequence(frames, loop, opts)
}

// Read returns a copy of the next frame, or ErrClosed once a non-looping
// sequence is exhausted.
func (s *Sequence) Read(ctx context.Context) (*images.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.next >= len(s.frames) {
		if !s.loop {
			return nil, ErrClosed
		}
		s.next = 0
	}
	frame := s.frames[s.next].Clone()
	s.next++
	return frame, nil
}

// Size returns the frame dimensions.
func (s *Sequence) Size() (int, int) {
	return s.frames[0].Width, s.frames[0].Height
}

// Close stops the source.
func (s *Sequence) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// prepare copies img, scales it to the forced size and mirrors it.
func prepare(img *images.Image, opts Options) (*images.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	frame := img.Clone()
	if opts.Width > 0 && opts.Height > 0 && !(frame.Width == opts.Width && frame.Height == opts.Height) {
		scaled, err := images.Resize(frame, opts.Width, opts.Height)
		if err != nil {
			return nil, err
		}
		frame = scaled
	}
	if opts.Mirror {
		kernels.FlipHorizontal(frame)
	}
	return frame, nil
}
