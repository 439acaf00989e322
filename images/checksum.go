package images

import (
	"crypto/md5"
	"fmt"
)

// Checksum returns a deterministic hex digest of the image's dimensions and
// pixels. Two images with equal checksums render identically.
//
// Example:
//
//	etag := images.Checksum(result)
func Checksum(img *Image) string {
	if img == nil || len(img.Data) == 0 {
		return "empty"
	}
	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", img.Width, img.Height)
	hash.Write(img.Data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
