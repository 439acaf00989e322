package util

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/nvr-ai/filterbox/images"
	"github.com/pkg/errors"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Name is the file name relative to the directory.
	Name string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number parsed from a "frame-N" style name, or -1.
	Frame int
}

var frameNumber = regexp.MustCompile(`(\d+)$`)

// parseFrame extracts the trailing number of a file's base name.
func parseFrame(name string) int {
	base := name[:len(name)-len(filepath.Ext(name))]
	m := frameNumber.FindStringSubmatch(base)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}

// ListDirectoryImages returns the names of the decodable image files in dir,
// sorted by frame number and then by name.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The matching files without their contents.
// - error: Error if the directory cannot be read.
func ListDirectoryImages(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := images.FormatFromPath(name); !ok {
			continue
		}
		files = append(files, ImageFile{
			Path:  filepath.Join(dir, name),
			Name:  name,
			Frame: parseFrame(name),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Frame != files[j].Frame {
			return files[i].Frame < files[j].Frame
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// ImageNames returns just the names from ListDirectoryImages.
func ImageNames(dir string) ([]string, error) {
	files, err := ListDirectoryImages(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names, nil
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := ListDirectoryImages(dir)
	if err != nil {
		return nil, err
	}
	for i := range files {
		data, err := os.ReadFile(files[i].Path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", files[i].Path)
		}
		files[i].Data = data
	}
	return files, nil
}
