package engine

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/mp3order/internal/config"
	ioutils "github.com/handiism/mp3order/internal/io"
	"github.com/handiism/mp3order/internal/io/memfs"
	"github.com/handiism/mp3order/internal/mirror"
)

type fakePlayer struct {
	source string
	plays  int
	stops  int
}

func (p *fakePlayer) SetSource(path string) error { p.source = path; return nil }
func (p *fakePlayer) Play() error                 { p.plays++; return nil }
func (p *fakePlayer) Stop() error                 { p.stops++; return nil }

// shuffledFS reverses directory enumeration until the given number of
// scratch directories has been created.
type shuffledFS struct {
	*memfs.FS
	reverseUntil int
	mkdirs       int
}

func (s *shuffledFS) Mkdir(p string) error {
	s.mkdirs++
	return s.FS.Mkdir(p)
}

func (s *shuffledFS) ReadDir(p string) ([]fs.DirEntry, error) {
	entries, err := s.FS.ReadDir(p)
	if err == nil && s.mkdirs < s.reverseUntil {
		slices.Reverse(entries)
	}
	return entries, err
}

// failingCopyFS fails every copy.
type failingCopyFS struct {
	*memfs.FS
}

func (failingCopyFS) CopyFile(context.Context, string, string) error {
	return errors.New("device removed")
}

func testSettings() *config.Settings {
	s := config.DefaultSettings()
	s.WorkDir = "/usb"
	s.MirrorRoot = ""
	s.MirrorDir = "/backup"
	return s
}

type harness struct {
	fs     *memfs.FS
	player *fakePlayer
	events []ProgressEvent
	engine *Engine
}

func newHarness(t *testing.T, s *config.Settings, wrap func(*memfs.FS) ioutils.FS, files ...string) *harness {
	t.Helper()

	h := &harness{fs: memfs.New(), player: &fakePlayer{}}
	for _, f := range files {
		require.NoError(t, h.fs.AddFile(filepath.Join("/usb", f), []byte(f)))
	}

	var fsys ioutils.FS = h.fs
	if wrap != nil {
		fsys = wrap(h.fs)
	}

	h.engine = New(s, func(ev ProgressEvent) { h.events = append(h.events, ev) },
		WithFS(fsys), WithPlayer(h.player))
	return h
}

func (h *harness) hasEvent(level ProgressLevel, substr string) bool {
	for _, ev := range h.events {
		if ev.Level == level && strings.Contains(ev.Message, substr) {
			return true
		}
	}
	return false
}

func TestApply_EndToEnd(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "b.mp3", "c.mp3", "a.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, folder.Labels())

	require.NoError(t, folder.Reorder([]string{"c", "a", "b"}))

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.NoError(t, res.Warning())
	assert.Equal(t, 1, res.Attempts)
	assert.True(t, res.Reload)
	assert.Equal(t, []string{"01 - c.mp3", "02 - a.mp3", "03 - b.mp3"}, res.Renamed)

	assert.Equal(t, []string{"01 - c.mp3", "02 - a.mp3", "03 - b.mp3"}, h.fs.Order("/usb"))

	data, err := h.fs.ReadFile("/usb/01 - c.mp3")
	require.NoError(t, err)
	assert.Equal(t, "c.mp3", string(data))

	require.NoError(t, res.MirrorErr)
	require.NotNil(t, res.Mirror)
	assert.Len(t, res.Mirror.Copied, 3)
	assert.ElementsMatch(t, h.fs.Order("/usb"), h.fs.Order("/backup"))

	reloaded, err := h.engine.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"01 - c", "02 - a", "03 - b"}, reloaded.Labels())
}

func TestApply_SortedOrderFixesEnumeration(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "c.mp3", "a.mp3", "b.mp3")
	assert.Equal(t, []string{"c.mp3", "a.mp3", "b.mp3"}, h.fs.Order("/usb"))

	folder, err := h.engine.Load()
	require.NoError(t, err)

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)

	want := []string{"01 - a.mp3", "02 - b.mp3", "03 - c.mp3"}
	assert.Equal(t, want, h.fs.Order("/usb"))
	assert.ElementsMatch(t, want, h.fs.Order("/backup"))

	for _, name := range want {
		src, err := h.fs.Stat("/usb/" + name)
		require.NoError(t, err)
		dst, err := h.fs.Stat("/backup/" + name)
		require.NoError(t, err)
		assert.Equal(t, src.Size(), dst.Size(), name)
	}
}

func TestApply_StopsPlaybackFirst(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "a.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)
	stops := h.player.stops

	_, err = h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)
	assert.Greater(t, h.player.stops, stops)
}

func TestApply_Unchanged(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "02 - b.mp3", "01 - a.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnchanged, res.Outcome)
	assert.False(t, res.Reload)
	assert.Zero(t, res.Attempts)
	assert.Nil(t, res.Mirror)

	// No reorder and no mirror.
	assert.Equal(t, []string{"02 - b.mp3", "01 - a.mp3"}, h.fs.Order("/usb"))
	_, err = h.fs.Stat("/backup")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestApply_RetriesThenSucceeds(t *testing.T) {
	s := testSettings()
	h := newHarness(t, s, func(m *memfs.FS) ioutils.FS {
		return &shuffledFS{FS: m, reverseUntil: 2}
	}, "x.mp3", "y.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.True(t, h.hasEvent(LevelWarning, "retrying"))
}

func TestApply_Unverified(t *testing.T) {
	h := newHarness(t, testSettings(), func(m *memfs.FS) ioutils.FS {
		return &shuffledFS{FS: m, reverseUntil: 1 << 30}
	}, "x.mp3", "y.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnverified, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.True(t, errors.Is(res.Warning(), ErrOrderingUnverified))
	assert.True(t, res.Reload)

	// Renames stand and the mirror still runs.
	assert.ElementsMatch(t, []string{"01 - x.mp3", "02 - y.mp3"}, h.fs.Order("/usb"))
	assert.ElementsMatch(t, []string{"01 - x.mp3", "02 - y.mp3"}, h.fs.Order("/backup"))
}

func TestApply_Collision(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "a.mp3", "01 - a.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)
	require.NoError(t, folder.Reorder([]string{"a", "01 - a"}))

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNameCollision))

	var ce *CollisionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a.mp3", ce.From)
	assert.Equal(t, "01 - a.mp3", ce.To)

	assert.Empty(t, res.Renamed)
	assert.ElementsMatch(t, []string{"a.mp3", "01 - a.mp3"}, h.fs.Order("/usb"))
}

func TestApply_KeepsUntitledLabel(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "07 - !!!.mp3", "b.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)

	assert.Equal(t, []string{"02 - b.mp3"}, res.Renamed)
	assert.ElementsMatch(t, []string{"07 - !!!.mp3", "02 - b.mp3"}, h.fs.Order("/usb"))
	assert.True(t, h.hasEvent(LevelWarning, "07 - !!!"))
}

func TestApply_UsesEditedLabels(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "a.mp3", "b.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)
	require.NoError(t, folder.SetLabel("b", "12 - Better Name"))

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)
	assert.Equal(t, []string{"01 - a.mp3", "02 - Better Name.mp3"}, res.Renamed)
}

func TestApply_SanitizesLabels(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "a.mp3", "b.mp3", "c.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)
	require.NoError(t, folder.SetLabel("a", "a/../../x"))
	require.NoError(t, folder.SetLabel("b", "b: part?"))
	require.NoError(t, folder.SetLabel("c", ".."))

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)
	assert.Equal(t, []string{"01 - _.._.._x.mp3", "02 - _ part_.mp3"}, res.Renamed)

	// Nothing escaped the working directory, and the mirror still has every track.
	_, err = h.fs.Stat("/x.mp3")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ElementsMatch(t, []string{"01 - _.._.._x.mp3", "02 - _ part_.mp3", "c.mp3"}, h.fs.Order("/usb"))
	assert.ElementsMatch(t, h.fs.Order("/usb"), h.fs.Order("/backup"))
	assert.True(t, h.hasEvent(LevelWarning, "c.mp3"))
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"01 - abc", true},
		{"01 - a.b", true},
		{"", false},
		{".", false},
		{"..", false},
		{"01 - /../../x", false},
		{`01 - a\b`, false},
		{"../x", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, validName(tt.name), tt.name)
	}
}

func TestApply_MirrorFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, testSettings(), func(m *memfs.FS) ioutils.FS {
		return failingCopyFS{m}
	}, "a.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Error(t, res.MirrorErr)
	assert.True(t, res.Reload)
	assert.True(t, h.hasEvent(LevelError, "Mirror failed"))
}

func TestApply_WritesPlaylist(t *testing.T) {
	s := testSettings()
	s.CreatePlaylist = true
	s.M3UExtended = false
	h := newHarness(t, s, nil, "a.mp3", "b.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)
	require.NoError(t, folder.Move(1, 0))

	_, err = h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)

	data, err := h.fs.ReadFile("/usb/playlist.m3u")
	require.NoError(t, err)
	assert.Equal(t, "01 - b.mp3\n02 - a.mp3\n", string(data))

	// The playlist is not a track and is not mirrored.
	assert.NotContains(t, h.fs.Order("/backup"), "playlist.m3u")
}

func TestApply_NoMirrorConfigured(t *testing.T) {
	s := testSettings()
	s.MirrorDir = ""
	h := newHarness(t, s, nil, "a.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)

	res, err := h.engine.Apply(context.Background(), folder.Tracks)
	require.NoError(t, err)
	assert.Nil(t, res.Mirror)
	assert.NoError(t, res.MirrorErr)
}

func TestRename(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "a.mp3", "taken.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)
	track := folder.Find("a")

	require.NoError(t, h.engine.Rename(track, "New: Name"))
	assert.Equal(t, "New_ Name", track.Name)
	assert.Equal(t, "/usb/New_ Name.mp3", track.Path)
	assert.ElementsMatch(t, []string{"New_ Name.mp3", "taken.mp3"}, h.fs.Order("/usb"))

	assert.True(t, errors.Is(h.engine.Rename(track, "  "), ErrEmptyName))
	assert.True(t, errors.Is(h.engine.Rename(track, "taken"), ErrNameCollision))

	// No reorder or mirror for single renames.
	_, err = h.fs.Stat("/backup")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSync(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "a.mp3", "b.mp3")
	require.NoError(t, h.fs.AddFile("/backup/old.mp3", []byte("old")))

	var progress []mirror.Progress
	h.engine = New(testSettings(), nil, WithFS(h.fs), WithPlayer(h.player),
		WithMirrorProgress(func(p mirror.Progress) { progress = append(progress, p) }))

	report, err := h.engine.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"old.mp3"}, report.Removed)
	assert.ElementsMatch(t, []string{"a.mp3", "b.mp3"}, report.Copied)
	assert.Len(t, progress, 3)
	assert.Equal(t, 3, progress[2].Done)
}

func TestPlayStop(t *testing.T) {
	h := newHarness(t, testSettings(), nil, "a.mp3")

	folder, err := h.engine.Load()
	require.NoError(t, err)

	require.NoError(t, h.engine.Play(folder.Tracks[0]))
	assert.Equal(t, "/usb/a.mp3", h.player.source)
	assert.Equal(t, 1, h.player.plays)

	stops := h.player.stops
	require.NoError(t, h.engine.Stop())
	assert.Equal(t, stops+1, h.player.stops)
}
