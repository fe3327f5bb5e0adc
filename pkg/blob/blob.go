// Package blob abstracts image storage. The GCS implementation serves
// production; Memory backs tests and local demos without credentials.
package blob

import (
	"context"
	"io"
)

// Store uploads and deletes binary objects addressed by public URL.
type Store interface {
	// Put streams the object under a prefixed name and returns its public
	// URL. The name is made unique by the implementation.
	Put(ctx context.Context, r io.Reader, prefix, filename, contentType string) (string, error)
	// Delete removes the object a previous Put returned the URL for.
	// Deleting an unknown URL is not an error.
	Delete(ctx context.Context, url string) error
}
