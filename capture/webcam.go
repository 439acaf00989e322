package capture

import (
	"context"
	"strconv"
	"sync"

	"github.com/nvr-ai/filterbox/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Webcam reads frames from a camera, video file or stream through OpenCV.
type Webcam struct {
	mu      sync.Mutex
	device  string
	capture *gocv.VideoCapture
	mat     gocv.Mat
	opts    Options
	width   int
	height  int
	closed  bool
}

// OpenWebcam opens device, a camera index such as "0" or a file or URL.
//
// Arguments:
//   - device: The capture device.
//   - opts: Mirroring and forced frame size.
//
// Returns:
//   - *Webcam: The open source. Its size is fixed by the forced size or, if
//     none, by the first frame.
//   - error: An error if the device cannot be opened or read.
func OpenWebcam(device string, opts Options) (*Webcam, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if id, convErr := strconv.Atoi(device); convErr == nil {
		vc, err = gocv.OpenVideoCapture(id)
	} else {
		vc, err = gocv.OpenVideoCapture(device)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open capture device %q", device)
	}

	if opts.Width > 0 && opts.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}

	w := &Webcam{
		device:  device,
		capture: vc,
		mat:     gocv.NewMat(),
		opts:    opts,
		width:   opts.Width,
		height:  opts.Height,
	}
	if w.width <= 0 || w.height <= 0 {
		first, err := w.Read(context.Background())
		if err != nil {
			w.Close()
			return nil, err
		}
		w.width, w.height = first.Width, first.Height
	}
	return w, nil
}

// Read grabs the next frame, mirrored if configured, and converts it to an
// RGBA buffer of the source's fixed size.
func (w *Webcam) Read(ctx context.Context) (*images.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}

	if ok := w.capture.Read(&w.mat); !ok {
		return nil, errors.Wrapf(ErrClosed, "cannot read device %s", w.device)
	}
	if w.mat.Empty() {
		return nil, errors.Errorf("empty frame from device %s", w.device)
	}
	if w.opts.Mirror {
		gocv.Flip(w.mat, &w.mat, 1)
	}

	src, err := w.mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	img, err := images.FromImage(src)
	if err != nil {
		return nil, err
	}
	if w.width > 0 && w.height > 0 && (img.Width != w.width || img.Height != w.height) {
		return images.Resize(img, w.width, w.height)
	}
	return img, nil
}

// Size returns the frame dimensions.
func (w *Webcam) Size() (int, int) {
	return w.width, w.height
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.mat.Close()
	return w.capture.Close()
}
