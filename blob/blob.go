// Package blob stores post images behind a small interface so the feed works
// the same against local disk and S3-compatible object storage, and keeps
// working with no blob store at all (image-less posts).
package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// Store holds image bytes under an opaque reference generated at save time.
type Store interface {
	// Save stores the bytes and returns the reference to persist on the post.
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	// Fetch returns the stored bytes for a reference.
	Fetch(ctx context.Context, ref string) ([]byte, error)
	// Delete releases the stored bytes. Deleting an unknown reference is not
	// an error.
	Delete(ctx context.Context, ref string) error
	// URL returns the address a client uses to display the image.
	URL(ref string) string
}

// makeRef derives the storage key from the upload time and the sanitized
// original filename, one directory per day.
func makeRef(now time.Time, filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == "" || name == string(filepath.Separator) {
		name = "image"
	}
	return fmt.Sprintf("%s/%d_%s", now.Format("2006/01/02"), now.UnixNano(), name)
}
