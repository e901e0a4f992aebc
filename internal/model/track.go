package model

import (
	"path/filepath"
	"strings"
)

// Track is one audio file in a working directory, seen at one moment.
//
// Track is a transient view: it is rebuilt every time the directory is listed
// and never persisted. Name is what is on disk right now; Label is what the
// user wants it to be called, which starts out equal to Name and may be edited
// before the folder is applied.
//
// Example:
//
//	track := NewTrack("/media/usb", "03 - Song.mp3", 1)
//	// track.Name  = "03 - Song"
//	// track.Label = "03 - Song"
//	// track.Ext   = ".mp3"
//	// track.Path  = "/media/usb/03 - Song.mp3"
type Track struct {
	// Ordinal is the 1-based position in the current ordered view.
	Ordinal int

	// Name is the on-disk file name without extension.
	Name string

	// Label is the display name. Apply canonicalizes Label, not Name.
	Label string

	// Ext is the extension exactly as found on disk, including the dot.
	Ext string

	// Path is the full path of the file on disk.
	Path string
}

// NewTrack creates a Track for fileName inside dir at the given position.
func NewTrack(dir, fileName string, ordinal int) *Track {
	ext := filepath.Ext(fileName)
	name := strings.TrimSuffix(fileName, ext)
	return &Track{
		Ordinal: ordinal,
		Name:    name,
		Label:   name,
		Ext:     ext,
		Path:    filepath.Join(dir, fileName),
	}
}

// FileName returns the on-disk file name including extension.
func (t *Track) FileName() string {
	return t.Name + t.Ext
}

// Edited reports whether the label differs from the on-disk name.
func (t *Track) Edited() bool {
	return t.Label != t.Name
}
