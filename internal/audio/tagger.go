package audio

import (
	"fmt"

	"github.com/bogem/id3v2"
)

// TagEditAction defines how to handle individual ID3 tags.
type TagEditAction int

const (
	// TagEmpty removes the frame.
	TagEmpty TagEditAction = iota

	// TagModify updates the frame from the new play order.
	TagModify

	// TagDoNotModify leaves the existing frame unchanged.
	TagDoNotModify
)

// ParseTagEditAction converts a settings value: "modify", "empty" or "keep".
// Anything else is TagDoNotModify.
func ParseTagEditAction(s string) TagEditAction {
	switch s {
	case "modify":
		return TagModify
	case "empty":
		return TagEmpty
	default:
		return TagDoNotModify
	}
}

// TagConfig selects which ID3 frames follow a renumbering.
//
// Many players show the TRCK frame or sort by it inside playlists, so after
// files are renumbered the frames can be brought in line with the file
// names:
//
//	cfg := &TagConfig{
//	    TrackNumber: TagModify,      // "3/12"
//	    TrackTitle:  TagDoNotModify, // keep the title the file was tagged with
//	}
type TagConfig struct {
	// TrackNumber controls the TRCK (Track number/Position in set) frame.
	TrackNumber TagEditAction

	// TrackTitle controls the TIT2 (Title) frame.
	TrackTitle TagEditAction
}

// DefaultTagConfig updates the track number and leaves titles alone.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		TrackNumber: TagModify,
		TrackTitle:  TagDoNotModify,
	}
}

// Tagger rewrites ID3v2 frames of renumbered MP3 files.
//
// Saving a tag rewrites the whole file through a temporary file, which
// creates a new directory entry. Tag before physically reordering a
// directory, never after.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//	err := tagger.SaveTags("/media/usb/03 - Song.mp3", 3, 12, "Song")
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// SaveTags writes the position number/total and title to the file at path.
// Files without an ID3v2 tag get one.
func (t *Tagger) SaveTags(path string, number, total int, title string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tag %s: %w", path, err)
	}
	defer tag.Close()

	switch t.config.TrackNumber {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("Track number/Position in set"))
	case TagModify:
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, fmt.Sprintf("%d/%d", number, total))
	}

	switch t.config.TrackTitle {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("Title"))
	case TagModify:
		tag.SetTitle(title)
	}

	return tag.Save()
}
