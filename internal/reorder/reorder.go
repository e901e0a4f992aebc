// Package reorder rewrites the physical order of directory entries so that a
// directory enumerates its tracks in ascending name order.
//
// There is no API for setting the position of a directory entry. On FAT
// media, however, a directory that has been emptied hands out its slots from
// the front again, so moving every track into a scratch directory and back
// in sorted order leaves the entries sorted. This is an observed property,
// not a contract; IsOrdered checks the result and callers retry.
//
//	r := reorder.New(ioutils.NewOS(), ".mp3")
//	if err := r.Reorder("/media/usb"); err != nil {
//	    return err
//	}
//	ok, err := r.IsOrdered("/media/usb")
package reorder

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	ioutils "github.com/handiism/mp3order/internal/io"
)

// DefaultScratchPrefix starts the name of every scratch directory.
const DefaultScratchPrefix = "mp3-"

// Reorderer moves the tracks of one extension through a scratch directory.
type Reorderer struct {
	fs     ioutils.FS
	ext    string
	prefix string

	// newName returns a scratch directory candidate. Replaced in tests to
	// force collisions.
	newName func() string
}

// New creates a Reorderer for files carrying ext.
func New(fsys ioutils.FS, ext string) *Reorderer {
	r := &Reorderer{
		fs:     fsys,
		ext:    ext,
		prefix: DefaultScratchPrefix,
	}
	r.newName = r.randomName
	return r
}

// WithScratchPrefix changes the scratch directory prefix. An empty prefix
// keeps the default.
func (r *Reorderer) WithScratchPrefix(prefix string) *Reorderer {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

func (r *Reorderer) randomName() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return r.prefix + id[:8] + ".dir"
}

// Reorder moves every matching file in dir into a fresh scratch directory and
// back, both times in ascending name order, then removes the scratch
// directory. The set of files in dir is unchanged.
//
// Nothing is rolled back on failure. If files could not be moved back the
// returned error names the scratch directory still holding them.
func (r *Reorderer) Reorder(dir string) error {
	scratch, err := r.createScratch(dir)
	if err != nil {
		return err
	}

	if err := r.moveAll(dir, scratch); err != nil {
		return fmt.Errorf("move into scratch %s: %w", scratch, err)
	}
	if err := r.moveAll(scratch, dir); err != nil {
		return fmt.Errorf("move back from scratch %s: %w", scratch, err)
	}
	if err := r.fs.Remove(scratch); err != nil {
		return fmt.Errorf("remove scratch %s: %w", scratch, err)
	}
	return nil
}

// createScratch keeps drawing random names until Mkdir succeeds.
func (r *Reorderer) createScratch(dir string) (string, error) {
	for {
		path := filepath.Join(dir, r.newName())
		err := r.fs.Mkdir(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create scratch directory: %w", err)
		}
	}
}

func (r *Reorderer) moveAll(from, to string) error {
	names, err := ioutils.ListSorted(r.fs, from, r.ext)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := r.fs.Rename(filepath.Join(from, name), filepath.Join(to, name)); err != nil {
			return err
		}
	}
	return nil
}

// IsOrdered reports whether dir enumerates its matching files in ascending
// order of their full paths. It only reads.
func (r *Reorderer) IsOrdered(dir string) (bool, error) {
	names, err := ioutils.ListFiles(r.fs, dir, r.ext)
	if err != nil {
		return false, err
	}

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return Ascending(paths), nil
}

// Ascending reports whether names is non-decreasing under byte-wise string
// comparison.
func Ascending(names []string) bool {
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			return false
		}
	}
	return true
}
