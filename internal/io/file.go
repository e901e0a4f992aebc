package ioutils

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// FS is the set of filesystem primitives the reorder engine is allowed to use.
//
// The interface exists because directory enumeration order is the thing being
// manipulated: tests substitute an in-memory implementation whose entry order is
// deterministic, while production code uses OS.
//
// ReadDir must return entries in the order the platform enumerates them. It must
// NOT sort them; os.ReadDir does, so OS uses File.ReadDir instead.
type FS interface {
	// ReadDir returns the entries of dir in raw enumeration order.
	ReadDir(dir string) ([]fs.DirEntry, error)

	// Rename moves oldpath to newpath. Implementations may overwrite an
	// existing newpath; callers check for collisions first.
	Rename(oldpath, newpath string) error

	// Mkdir creates a single directory. It returns an error satisfying
	// errors.Is(err, fs.ErrExist) when the path is already taken.
	Mkdir(path string) error

	// MkdirAll creates a directory and all missing parents.
	MkdirAll(path string) error

	// Remove deletes a file or an empty directory.
	Remove(path string) error

	// Stat returns file information for path.
	Stat(path string) (fs.FileInfo, error)

	// CopyFile copies src to dst, creating or truncating dst.
	CopyFile(ctx context.Context, src, dst string) error

	// WriteFile writes data to path, creating or truncating it.
	WriteFile(ctx context.Context, path string, data []byte) error
}

// OS implements FS on top of the host filesystem.
type OS struct{}

// NewOS returns the host filesystem.
func NewOS() OS {
	return OS{}
}

// ReadDir opens dir and reads its entries without sorting them.
func (OS) ReadDir(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.ReadDir(-1)
}

func (OS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (OS) Mkdir(path string) error { return os.Mkdir(path, 0755) }

func (OS) MkdirAll(path string) error { return EnsureDir(path) }

func (OS) Remove(path string) error { return os.Remove(path) }

func (OS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

func (OS) CopyFile(ctx context.Context, src, dst string) error { return CopyFile(ctx, src, dst) }

func (OS) WriteFile(ctx context.Context, path string, data []byte) error {
	return WriteFile(ctx, path, data)
}

// CopyFile copies a file from source to destination.
//
// The destination file is created with mode 0644 if it doesn't exist,
// or truncated if it does. The source file must exist and be readable.
//
// Parameters:
//   - ctx: Context checked before the copy starts
//   - src: Source file path (must exist)
//   - dst: Destination file path (will be created/overwritten)
//
// Returns an error if:
//   - The context is already done
//   - Source file cannot be opened
//   - Destination file cannot be created
//   - Copy operation or the final close fails
//
// Example:
//
//	err := CopyFile(ctx, "/media/usb/01 - song.mp3", "/backup/01 - song.mp3")
func CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	// On removable media a write error may only surface at close.
	return destFile.Close()
}

// WriteFile writes data to a file, creating it if necessary.
//
// The file is created with mode 0644. If the file already exists,
// it is truncated before writing.
//
// Example:
//
//	playlistContent := []byte("#EXTM3U\n...")
//	err := WriteFile(ctx, "/media/usb/playlist.m3u", playlistContent)
func WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var (
	invalidChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots   = regexp.MustCompile(`\.+$`)
	repeatedSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// Removable players are almost always FAT formatted, so the Windows rules
// apply regardless of the host platform.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Leading and trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2")     // Returns "Song_ Part 1_2"
//	SanitizeFileName("Track...")           // Returns "Track"
//	SanitizeFileName("Name   with  spaces") // Returns "Name with spaces"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = trailingDots.ReplaceAllString(name, "")
	return strings.TrimRight(name, " ")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// HasExt reports whether name carries ext, ignoring case the way FAT does.
func HasExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

// ListFiles returns the base names of the regular files in dir that carry ext,
// in the order fsys enumerates them. Directories are skipped even when their
// name ends in ext.
func ListFiles(fsys FS, dir, ext string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !HasExt(e.Name(), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// ListSorted is ListFiles followed by an ascending sort.
func ListSorted(fsys FS, dir, ext string) ([]string, error) {
	names, err := ListFiles(fsys, dir, ext)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
