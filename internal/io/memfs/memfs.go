// Package memfs is an in-memory ioutils.FS that models how FAT directories
// hand out entry slots.
//
// Every directory is a slice of slots. Removing an entry frees its slot, and a
// new entry takes the first free slot or is appended at the end. Renaming within
// one directory keeps the slot. Enumeration returns slots in index order, which
// makes the effect of entry churn on play order reproducible in tests:
//
//	fsys := memfs.New()
//	fsys.AddFile("/usb/c.mp3", nil)
//	fsys.AddFile("/usb/a.mp3", nil)
//	fsys.Order("/usb") // ["c.mp3", "a.mp3"]
package memfs

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var errNotEmpty = errors.New("directory not empty")

type entry struct {
	name    string
	isDir   bool
	data    []byte
	modTime time.Time
}

type dir struct {
	slots []*entry
}

func (d *dir) find(name string) int {
	for i, e := range d.slots {
		if e != nil && e.name == name {
			return i
		}
	}
	return -1
}

func (d *dir) insert(e *entry) {
	for i, s := range d.slots {
		if s == nil {
			d.slots[i] = e
			return
		}
	}
	d.slots = append(d.slots, e)
}

func (d *dir) empty() bool {
	for _, s := range d.slots {
		if s != nil {
			return false
		}
	}
	return true
}

// FS is safe for concurrent use.
type FS struct {
	mu   sync.Mutex
	dirs map[string]*dir
}

// New returns an FS containing only the root directory.
func New() *FS {
	return &FS{dirs: map[string]*dir{string(filepath.Separator): {}}}
}

func clean(p string) string {
	return filepath.Clean(string(filepath.Separator) + p)
}

func split(p string) (string, string) {
	p = clean(p)
	return filepath.Dir(p), filepath.Base(p)
}

// lookup returns the parent directory and slot index of p. The index is -1
// when the parent exists but p does not.
func (f *FS) lookup(p string) (*dir, int, error) {
	parent, name := split(p)
	d, ok := f.dirs[parent]
	if !ok {
		return nil, -1, fs.ErrNotExist
	}
	return d, d.find(name), nil
}

// AddFile creates the file at p with data, creating parent directories.
func (f *FS) AddFile(p string, data []byte) error {
	if err := f.MkdirAll(filepath.Dir(clean(p))); err != nil {
		return err
	}
	return f.WriteFile(context.Background(), p, data)
}

// Order returns the names in dir in slot order.
func (f *FS) Order(p string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.dirs[clean(p)]
	if !ok {
		return nil
	}
	var names []string
	for _, e := range d.slots {
		if e != nil {
			names = append(names, e.name)
		}
	}
	return names
}

// ReadFile returns a copy of the contents of p.
func (f *FS) ReadFile(p string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, i, err := f.lookup(p)
	if err != nil || i < 0 {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	e := d.slots[i]
	if e.isDir {
		return nil, &fs.PathError{Op: "read", Path: p, Err: errors.New("is a directory")}
	}
	return append([]byte(nil), e.data...), nil
}

func (f *FS) ReadDir(p string) ([]fs.DirEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.dirs[clean(p)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	var entries []fs.DirEntry
	for _, e := range d.slots {
		if e != nil {
			entries = append(entries, snapshot(e))
		}
	}
	return entries, nil
}

func (f *FS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	src, si, err := f.lookup(oldpath)
	if err != nil || si < 0 {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	dst, di, err := f.lookup(newpath)
	if err != nil {
		return &fs.PathError{Op: "rename", Path: newpath, Err: fs.ErrNotExist}
	}

	e := src.slots[si]
	_, newName := split(newpath)

	if src == dst {
		if di >= 0 && di != si {
			dst.slots[di] = nil
		}
		e.name = newName
	} else {
		src.slots[si] = nil
		if di >= 0 {
			dst.slots[di] = nil
		}
		e.name = newName
		dst.insert(e)
	}

	if e.isDir {
		f.rekey(clean(oldpath), clean(newpath))
	}
	return nil
}

func (f *FS) rekey(oldp, newp string) {
	moved := map[string]*dir{}
	for p, d := range f.dirs {
		rel, err := filepath.Rel(oldp, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		moved[filepath.Join(newp, rel)] = d
		delete(f.dirs, p)
	}
	for p, d := range moved {
		f.dirs[p] = d
	}
}

func (f *FS) Mkdir(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mkdir(p)
}

func (f *FS) mkdir(p string) error {
	d, i, err := f.lookup(p)
	if err != nil {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrNotExist}
	}
	if i >= 0 {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	_, name := split(p)
	d.insert(&entry{name: name, isDir: true, modTime: time.Now()})
	f.dirs[clean(p)] = &dir{}
	return nil
}

func (f *FS) MkdirAll(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mkdirAll(clean(p))
}

func (f *FS) mkdirAll(p string) error {
	if _, ok := f.dirs[p]; ok {
		return nil
	}
	if parent := filepath.Dir(p); parent != p {
		if err := f.mkdirAll(parent); err != nil {
			return err
		}
	}
	return f.mkdir(p)
}

func (f *FS) Remove(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, i, err := f.lookup(p)
	if err != nil || i < 0 {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
	}
	if d.slots[i].isDir {
		if !f.dirs[clean(p)].empty() {
			return &fs.PathError{Op: "remove", Path: p, Err: errNotEmpty}
		}
		delete(f.dirs, clean(p))
	}
	d.slots[i] = nil
	return nil
}

func (f *FS) Stat(p string) (fs.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if clean(p) == string(filepath.Separator) {
		return info{&entry{name: string(filepath.Separator), isDir: true}}, nil
	}
	d, i, err := f.lookup(p)
	if err != nil || i < 0 {
		return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
	}
	return snapshot(d.slots[i]), nil
}

func (f *FS) CopyFile(ctx context.Context, src, dst string) error {
	data, err := f.ReadFile(src)
	if err != nil {
		return err
	}
	return f.WriteFile(ctx, dst, data)
}

func (f *FS) WriteFile(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	d, i, err := f.lookup(p)
	if err != nil {
		return &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	buf := append([]byte(nil), data...)
	if i >= 0 {
		if d.slots[i].isDir {
			return &fs.PathError{Op: "open", Path: p, Err: errors.New("is a directory")}
		}
		d.slots[i].data = buf
		d.slots[i].modTime = time.Now()
		return nil
	}
	_, name := split(p)
	d.insert(&entry{name: name, data: buf, modTime: time.Now()})
	return nil
}

// info implements both fs.FileInfo and fs.DirEntry.
type info struct{ e *entry }

// snapshot detaches the returned info from later renames of e.
func snapshot(e *entry) info {
	c := *e
	return info{&c}
}

func (i info) Name() string       { return i.e.name }
func (i info) Size() int64        { return int64(len(i.e.data)) }
func (i info) ModTime() time.Time { return i.e.modTime }
func (i info) IsDir() bool        { return i.e.isDir }
func (i info) Sys() any           { return nil }

func (i info) Mode() fs.FileMode {
	if i.e.isDir {
		return fs.ModeDir | 0755
	}
	return 0644
}

func (i info) Type() fs.FileMode          { return i.Mode().Type() }
func (i info) Info() (fs.FileInfo, error) { return i, nil }
