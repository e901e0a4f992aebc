package audio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Metadata is what the list views show next to a file name.
type Metadata struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Track  int    `json:"track"`
}

// ReadMetadata reads the embedded tags of the file at path. Missing or
// unreadable tags fall back to the file name as title; the error is only
// reported when the file itself cannot be opened.
func ReadMetadata(path string) (*Metadata, error) {
	fallback := &Metadata{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}

	f, err := os.Open(path)
	if err != nil {
		return fallback, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fallback, nil
	}

	track, _ := m.Track()
	md := &Metadata{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Track:  track,
	}
	if md.Title == "" {
		md.Title = fallback.Title
	}
	if md.Artist == "" {
		md.Artist = m.AlbumArtist()
	}
	return md, nil
}
