package mirror

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ioutils "github.com/handiism/mp3order/internal/io"
	"github.com/handiism/mp3order/internal/io/memfs"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func listing(t *testing.T, dir string) []string {
	t.Helper()
	names, err := ioutils.ListSorted(ioutils.NewOS(), dir, ".mp3")
	require.NoError(t, err)
	return names
}

func TestSync_CopiesIntoMissingDestination(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "USB", "0000ABCD")
	write(t, filepath.Join(src, "01 - a.mp3"), "aaa")
	write(t, filepath.Join(src, "02 - b.mp3"), "bbbb")
	write(t, filepath.Join(src, "cover.jpg"), "jpg")

	var seen []Progress
	m := New(ioutils.NewOS(), ".mp3", 1, func(p Progress) { seen = append(seen, p) })

	report, err := m.Sync(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, []string{"01 - a.mp3", "02 - b.mp3"}, listing(t, dst))
	assert.Equal(t, "bbbb", read(t, filepath.Join(dst, "02 - b.mp3")))
	assert.Len(t, report.Copied, 2)
	assert.Empty(t, report.Removed)
	require.Len(t, seen, 2)
	assert.Equal(t, 2, seen[1].Done)
	assert.Equal(t, 2, seen[1].Total)

	_, err = os.Stat(filepath.Join(dst, "cover.jpg"))
	assert.True(t, os.IsNotExist(err), "untracked files are not mirrored")
}

func TestSync_RemovesOrphans(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	write(t, filepath.Join(src, "01 - a.mp3"), "a")
	write(t, filepath.Join(dst, "01 - a.mp3"), "a")
	write(t, filepath.Join(dst, "old.mp3"), "old")
	write(t, filepath.Join(dst, "keep.txt"), "not tracked")

	report, err := New(ioutils.NewOS(), ".mp3", 1, nil).Sync(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, []string{"old.mp3"}, report.Removed)
	assert.Equal(t, []string{"01 - a.mp3"}, listing(t, dst))
	assert.Equal(t, "not tracked", read(t, filepath.Join(dst, "keep.txt")))
	assert.Equal(t, 1, report.Unchanged)
}

func TestSync_LengthIsTheOnlyStalenessSignal(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	write(t, filepath.Join(src, "grown.mp3"), "longer content")
	write(t, filepath.Join(dst, "grown.mp3"), "short")
	write(t, filepath.Join(src, "edited.mp3"), "AAAA")
	write(t, filepath.Join(dst, "edited.mp3"), "BBBB")

	report, err := New(ioutils.NewOS(), ".mp3", 1, nil).Sync(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, []string{"grown.mp3"}, report.Copied)
	assert.Equal(t, "longer content", read(t, filepath.Join(dst, "grown.mp3")))

	// Same length, different bytes: a known false negative.
	assert.Equal(t, "BBBB", read(t, filepath.Join(dst, "edited.mp3")))
}

func TestSync_Converges(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	write(t, filepath.Join(src, "a.mp3"), "a")
	write(t, filepath.Join(src, "b.mp3"), "bb")
	write(t, filepath.Join(dst, "c.mp3"), "ccc")

	m := New(ioutils.NewOS(), ".mp3", 4, nil)
	_, err := m.Sync(context.Background(), src, dst)
	require.NoError(t, err)
	first := listing(t, dst)

	report, err := m.Sync(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, first, listing(t, dst))
	assert.Empty(t, report.Copied)
	assert.Empty(t, report.Removed)
	assert.Equal(t, 2, report.Unchanged)

	plan, err := m.Plan(src, dst)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
}

func TestSync_NeverTouchesSource(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.AddFile("/usb/a.mp3", []byte("a")))
	require.NoError(t, fsys.AddFile("/usb/b.mp3", []byte("b")))
	require.NoError(t, fsys.AddFile("/backup/z.mp3", []byte("z")))

	_, err := New(fsys, ".mp3", 1, nil).Sync(context.Background(), "/usb", "/backup")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.mp3", "b.mp3"}, fsys.Order("/usb"))
	got := fsys.Order("/backup")
	sort.Strings(got)
	assert.Equal(t, []string{"a.mp3", "b.mp3"}, got)
}

func TestSync_CancelledContext(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	write(t, filepath.Join(src, "a.mp3"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ioutils.NewOS(), ".mp3", 1, nil).Sync(ctx, src, dst)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSync_MissingSource(t *testing.T) {
	_, err := New(ioutils.NewOS(), ".mp3", 1, nil).Sync(context.Background(), filepath.Join(t.TempDir(), "gone"), t.TempDir())
	assert.Error(t, err)
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("/music", "USB DISK", "1A2B3C4D"), PathFor("/music", "USB DISK", 0x1A2B3C4D))
	assert.Equal(t, filepath.Join("/music", "volume", "00000001"), PathFor("/music", "  ", 1))
	assert.Equal(t, filepath.Join("/music", "a_b", "00000000"), PathFor("/music", "a/b", 0))
}
