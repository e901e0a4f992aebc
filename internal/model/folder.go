package model

import (
	"fmt"
)

// Folder is the ordered sequence of tracks in one working directory.
//
// The order of Tracks is the single source of truth for the intended play
// order. Right after NewFolder, len(Tracks) equals the number of matching
// files in WorkDir; after that the sequence is only changed by Move and
// SetLabel until the folder is applied and reloaded.
type Folder struct {
	// WorkDir is the authoritative directory, usually on removable media.
	WorkDir string

	// Tracks in intended play order.
	Tracks []*Track
}

// NewFolder builds a Folder from file names, keeping their order.
func NewFolder(workDir string, fileNames []string) *Folder {
	f := &Folder{
		WorkDir: workDir,
		Tracks:  make([]*Track, 0, len(fileNames)),
	}
	for i, name := range fileNames {
		f.Tracks = append(f.Tracks, NewTrack(workDir, name, i+1))
	}
	return f
}

// Len returns the number of tracks.
func (f *Folder) Len() int {
	return len(f.Tracks)
}

// Move takes the track at index from and reinserts it at index to, shifting
// the tracks in between. Indexes are 0-based. Ordinals are renumbered.
func (f *Folder) Move(from, to int) error {
	n := len(f.Tracks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %d: index out of range [0,%d)", from, to, n)
	}
	if from == to {
		return nil
	}

	t := f.Tracks[from]
	if from < to {
		copy(f.Tracks[from:to], f.Tracks[from+1:to+1])
	} else {
		copy(f.Tracks[to+1:from+1], f.Tracks[to:from])
	}
	f.Tracks[to] = t

	f.renumber()
	return nil
}

// Reorder arranges the tracks to follow names, a permutation of the current
// on-disk names.
func (f *Folder) Reorder(names []string) error {
	if len(names) != len(f.Tracks) {
		return fmt.Errorf("reorder: got %d names for %d tracks", len(names), len(f.Tracks))
	}

	byName := make(map[string]*Track, len(f.Tracks))
	for _, t := range f.Tracks {
		byName[t.Name] = t
	}

	ordered := make([]*Track, 0, len(names))
	for _, name := range names {
		t, ok := byName[name]
		if !ok {
			return fmt.Errorf("reorder: unknown or repeated track %q", name)
		}
		delete(byName, name)
		ordered = append(ordered, t)
	}

	f.Tracks = ordered
	f.renumber()
	return nil
}

// SetLabel changes the display label of the track whose on-disk name is
// name. The label is only a request; the engine sanitizes it when applying.
func (f *Folder) SetLabel(name, label string) error {
	t := f.Find(name)
	if t == nil {
		return fmt.Errorf("set label: unknown track %q", name)
	}
	t.Label = label
	return nil
}

// Find returns the track whose on-disk name is name, or nil.
func (f *Folder) Find(name string) *Track {
	for _, t := range f.Tracks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Labels returns the display labels in order.
func (f *Folder) Labels() []string {
	labels := make([]string, len(f.Tracks))
	for i, t := range f.Tracks {
		labels[i] = t.Label
	}
	return labels
}

func (f *Folder) renumber() {
	for i, t := range f.Tracks {
		t.Ordinal = i + 1
	}
}
