package storage

import "github.com/cockroachdb/errors"

// ErrNotFound is returned by Load when the key holds no document.
var ErrNotFound = errors.New("document not found")

// Blobs stores opaque documents under slash-separated keys such as
// "2024/20240810.Football".
type Blobs interface {
	// Exists reports whether a document is stored under key.
	Exists(key string) bool
	// Load returns the document stored under key, or an error marked
	// ErrNotFound when there is none.
	Load(key string) ([]byte, error)
	// Save stores data under key, replacing any previous document.
	Save(key string, data []byte) error
	// List returns the keys stored directly under dir, sorted.
	List(dir string) ([]string, error)
}

func notFound(key string) error {
	return errors.Mark(errors.Newf("%s: %s", ErrNotFound, key), ErrNotFound)
}
