// Package archive saves exported signal files to the local filesystem or
// an S3-compatible bucket.
package archive

import "context"

// Storage is a flat store of export files.
type Storage interface {
	// Write stores data at the given path, replacing any existing file.
	Write(ctx context.Context, path string, data []byte) error

	// List returns all paths starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// Location describes where path lives, for messages to the user.
	Location(path string) string
}
