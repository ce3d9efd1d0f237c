package storage

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
)

// File extensions of the on-disk documents
const (
	RawExt  = ".html.gz"
	JSONExt = ".json.gz"
)

// FS stores gzip-compressed documents under a root directory. A key maps to
// <root>/<key><ext>.
type FS struct {
	root string
	ext  string
}

// NewFS creates a filesystem store rooted at root. The root is created
// lazily by the first Save or List.
func NewFS(root, ext string) *FS {
	return &FS{root: root, ext: ext}
}

// Root returns the directory documents are stored under.
func (s *FS) Root() string {
	return s.root
}

// Path returns the file a key is stored in.
func (s *FS) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key)+s.ext)
}

// Exists reports whether the file for key is present.
func (s *FS) Exists(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Load reads and decompresses the document for key. A truncated or corrupt
// file is an error, never an empty document.
func (s *FS) Load(key string) ([]byte, error) {
	p := s.Path(key)
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(key)
		}
		return nil, errors.Wrapf(err, "opening %s", p)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", p)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing %s", p)
	}
	return data, nil
}

// Save compresses data and writes it for key. The write goes through a
// temporary file and a rename, and is skipped when the file already holds
// the same compressed bytes.
func (s *FS) Save(key string, data []byte) error {
	target := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", target)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	zw := gzip.NewWriter(buf)
	if _, err := zw.Write(data); err != nil {
		return errors.Wrapf(err, "compressing %s", target)
	}
	if err := zw.Close(); err != nil {
		return errors.Wrapf(err, "compressing %s", target)
	}

	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, buf.B) {
		return nil
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, buf.B, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "renaming %s", tmp)
	}
	return nil
}

// List returns the keys of the documents stored directly under dir. A
// missing directory is created and yields no keys.
func (s *FS) List(dir string) ([]string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(dir))
	entries, err := os.ReadDir(full)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "listing %s", full)
		}
		if err := os.MkdirAll(full, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating %s", full)
		}
		return nil, nil
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), s.ext) {
			continue
		}
		keys = append(keys, path.Join(dir, strings.TrimSuffix(e.Name(), s.ext)))
	}
	sort.Strings(keys)
	return keys, nil
}
