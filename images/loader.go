package images

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// ErrImageNotFound is returned by loaders for unknown image identifiers.
var ErrImageNotFound = errors.New("image not found")

// Loader produces pixel buffers for a source identifier.
//
// Load returns the image at its natural dimensions. LoadResized returns it
// scaled to exactly width x height, which is how a comparison target is
// regenerated at the dimensions of a user's result buffer.
type Loader interface {
	Load(ctx context.Context, id string) (*Image, error)
	LoadResized(ctx context.Context, id string, width, height int) (*Image, error)
}

// FileLoader loads images from files under Root. Identifiers are paths
// relative to Root (absolute identifiers are used as-is).
type FileLoader struct {
	Root string
}

// NewFileLoader creates a loader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Root: dir}
}

func (l *FileLoader) path(id string) string {
	if filepath.IsAbs(id) || l.Root == "" {
		return id
	}
	return filepath.Join(l.Root, id)
}

// Load reads and decodes the file named by id.
func (l *FileLoader) Load(ctx context.Context, id string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := l.path(id)
	if _, ok := FormatFromPath(path); !ok {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "file %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrImageNotFound, "file %s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// LoadResized reads the file named by id and scales it to width x height.
func (l *FileLoader) LoadResized(ctx context.Context, id string, width, height int) (*Image, error) {
	img, err := l.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Resize(img, width, height)
}

// MemoryLoader serves images held in memory. It is safe for concurrent use.
type MemoryLoader struct {
	mu     sync.RWMutex
	images map[string]*Image
}

// NewMemoryLoader creates an empty in-memory loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{images: make(map[string]*Image)}
}

// Put stores a copy of img under id.
func (l *MemoryLoader) Put(id string, img *Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[id] = img.Clone()
}

// IDs returns the stored identifiers in no particular order.
func (l *MemoryLoader) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.images))
	for id := range l.images {
		ids = append(ids, id)
	}
	return ids
}

// Load returns a copy of the stored image.
func (l *MemoryLoader) Load(ctx context.Context, id string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	img, ok := l.images[id]
	l.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrImageNotFound, "id %q", id)
	}
	return img.Clone(), nil
}

// LoadResized returns the stored image scaled to width x height.
func (l *MemoryLoader) LoadResized(ctx context.Context, id string, width, height int) (*Image, error) {
	img, err := l.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return Resize(img, width, height)
}
