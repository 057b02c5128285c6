// Package image holds a compiled module fully in memory and exposes the
// scan and fixed-length splice primitives the patch engine is built on.
//
// An Image never changes length after it is loaded. Every write goes through
// Splice, which rejects replacements whose width differs from the region being
// overwritten, so offsets embedded elsewhere in the module stay valid.
//
// An Image has a single owner and is not safe for concurrent mutation.
// Patching several files in parallel means one Image per file.
package image

import (
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/wasmpatch/wasmpatch/internal/safe"
)

var (
	// ErrIO reports a failure reading or writing the backing file.
	ErrIO = errors.New("image i/o error")

	// ErrLengthMismatch reports a splice whose replacement width differs from
	// the region it would overwrite.
	ErrLengthMismatch = errors.New("replacement length mismatch")

	// ErrOutOfRange reports a splice region outside the image.
	ErrOutOfRange = errors.New("region out of range")
)

// Image is an owned, mutable, fixed-length byte image of a module file.
type Image struct {
	path string
	data []byte
}

// LoadOptions configures Load.
type LoadOptions struct {
	// MaxSize caps the file size in bytes. Zero means safe.DefaultMaxFileSize.
	MaxSize int64
	// AllowSymlinks permits loading through a symlink.
	AllowSymlinks bool
}

// Load reads the whole file at path into memory.
func Load(path string, opts *LoadOptions) (*Image, error) {
	if opts == nil {
		opts = &LoadOptions{AllowSymlinks: true}
	}

	data, err := safe.ReadFile(path, &safe.ReadOptions{
		MaxSize:       opts.MaxSize,
		AllowSymlinks: opts.AllowSymlinks,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrIO, path, err)
	}

	return &Image{path: path, data: data}, nil
}

// New wraps data as an image. The image takes ownership of data.
func New(path string, data []byte) *Image {
	return &Image{path: path, data: data}
}

// Path returns the path the image was loaded from.
func (img *Image) Path() string {
	return img.path
}

// Len returns the fixed length of the image.
func (img *Image) Len() int {
	return len(img.data)
}

// Bytes returns the current contents. Callers must not modify the slice.
func (img *Image) Bytes() []byte {
	return img.data
}

// Digest returns the xxh3 hash of the current contents.
func (img *Image) Digest() uint64 {
	return xxh3.Hash(img.data)
}

// FindAll returns every non-overlapping offset >= from where needle occurs.
func (img *Image) FindAll(needle []byte, from int) []int {
	return Scan(img.data, needle, from, len(needle))
}

// Splice overwrites [offset, offset+length) with replacement.
func (img *Image) Splice(offset, length int, replacement []byte) error {
	if len(replacement) != length {
		return fmt.Errorf("%w: region is %d bytes, replacement is %d bytes",
			ErrLengthMismatch, length, len(replacement))
	}
	if offset < 0 || length < 0 || offset > len(img.data)-length {
		return fmt.Errorf("%w: [%d, %d) in image of %d bytes",
			ErrOutOfRange, offset, offset+length, len(img.data))
	}

	copy(img.data[offset:offset+length], replacement)
	return nil
}

// Save writes the full image to path, creating or replacing it.
func (img *Image) Save(path string) error {
	if err := safe.WriteFileAtomic(path, img.data, 0o644); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrIO, path, err)
	}
	return nil
}
