package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/mp3order/internal/audio"
	"github.com/handiism/mp3order/internal/config"
	ioutils "github.com/handiism/mp3order/internal/io"
	"github.com/handiism/mp3order/internal/mirror"
	"github.com/handiism/mp3order/internal/model"
	"github.com/handiism/mp3order/internal/naming"
	"github.com/handiism/mp3order/internal/player"
	"github.com/handiism/mp3order/internal/reorder"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// ProgressEvent is a message for whoever drives the engine.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Outcome summarises an Apply.
type Outcome int

const (
	// OutcomeUnchanged means every file already had its canonical name;
	// nothing was reordered or mirrored.
	OutcomeUnchanged Outcome = iota

	// OutcomeSuccess means files were renamed and the directory verified
	// to enumerate in ascending order.
	OutcomeSuccess

	// OutcomeUnverified means files were renamed but the directory still
	// enumerated out of order after every reorder attempt.
	OutcomeUnverified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnverified:
		return "unverified"
	default:
		return "unchanged"
	}
}

// Result is what Apply did.
type Result struct {
	Outcome Outcome

	// Renamed holds the new file names, in play order.
	Renamed []string

	// Attempts is the number of physical reorders run.
	Attempts int

	// Mirror is nil when mirroring is disabled or failed before copying.
	Mirror    *mirror.Report
	MirrorErr error

	// Reload tells the caller to list the directory again.
	Reload bool
}

// Warning returns a non-nil error wrapping ErrOrderingUnverified when the
// new order could not be verified.
func (r *Result) Warning() error {
	if r.Outcome != OutcomeUnverified {
		return nil
	}
	return fmt.Errorf("%w after %d attempts", ErrOrderingUnverified, r.Attempts)
}

// Option configures an Engine.
type Option func(*Engine)

// WithFS replaces the host filesystem.
func WithFS(fsys ioutils.FS) Option {
	return func(e *Engine) { e.fs = fsys }
}

// WithPlayer replaces the player built from settings.
func WithPlayer(p player.Player) Option {
	return func(e *Engine) { e.player = p }
}

// WithMirrorProgress receives every mirror file operation, e.g. to drive a
// progress bar.
func WithMirrorProgress(fn func(mirror.Progress)) Option {
	return func(e *Engine) { e.onMirror = fn }
}

// Engine applies a user-chosen order to one working directory.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	settings  *config.Settings
	fs        ioutils.FS
	player    player.Player
	reorderer *reorder.Reorderer
	mirror    *mirror.Mirror
	tagger    *audio.Tagger
	playlist  *audio.PlaylistCreator
	mirrorDir string

	onProgress func(ProgressEvent)
	onMirror   func(mirror.Progress)
}

// New creates an Engine for settings.WorkDir.
//
// The mirror directory is resolved once. When it cannot be resolved a
// warning is reported and mirroring is disabled.
func New(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) *Engine {
	e := &Engine{
		settings:   settings,
		fs:         ioutils.NewOS(),
		tagger:     audio.NewTagger(settings.ToTagConfig()),
		playlist:   audio.NewPlaylistCreator(settings.ToPlaylistFormat(), settings.M3UExtended),
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.player == nil {
		p, err := player.New(settings.PlayerCommand)
		if err != nil {
			e.progress(ProgressEvent{Message: fmt.Sprintf("Playback disabled: %v", err), Level: LevelWarning})
			p = player.Nop{}
		}
		e.player = p
	}

	e.reorderer = reorder.New(e.fs, settings.Extension).WithScratchPrefix(settings.ScratchPrefix)
	e.mirror = mirror.New(e.fs, settings.Extension, settings.MirrorConcurrency, e.mirrorProgress)

	dir, err := settings.ResolveMirrorDir()
	if err != nil {
		e.progress(ProgressEvent{Message: fmt.Sprintf("Mirroring disabled: %v", err), Level: LevelWarning})
	}
	e.mirrorDir = dir

	return e
}

// WorkDir returns the directory being managed.
func (e *Engine) WorkDir() string {
	return e.settings.WorkDir
}

// MirrorDir returns the resolved mirror directory, empty when disabled.
func (e *Engine) MirrorDir() string {
	return e.mirrorDir
}

// Load stops playback and lists the working directory sorted by name.
func (e *Engine) Load() (*model.Folder, error) {
	e.stopPlayback()

	names, err := ioutils.ListSorted(e.fs, e.settings.WorkDir, e.settings.Extension)
	if err != nil {
		return nil, err
	}
	return model.NewFolder(e.settings.WorkDir, names), nil
}

// Apply makes the directory play tracks in the given order.
//
// Every track is renamed to the canonical name of its label at its
// position. When anything was renamed the directory entries are physically
// reordered and verified, retrying up to reorder_attempts times, and the
// directory is mirrored. Tracks are updated in place to their new names.
//
// The returned error is set for collisions and I/O failures during renames
// or reordering. An unverified order is reported through Result.Warning and
// a mirror failure through Result.MirrorErr.
func (e *Engine) Apply(ctx context.Context, tracks []*model.Track) (*Result, error) {
	e.stopPlayback()

	result := &Result{}

	renamed, err := e.renameAll(tracks)
	result.Renamed = renamed
	if err != nil {
		e.progress(ProgressEvent{Message: err.Error(), Level: LevelError})
		return result, err
	}

	if len(renamed) == 0 {
		e.progress(ProgressEvent{Message: "Order unchanged, nothing to do", Level: LevelInfo})
		return result, nil
	}
	e.progress(ProgressEvent{Message: fmt.Sprintf("Renamed %d files", len(renamed)), Level: LevelInfo})

	if e.settings.SyncTags {
		e.syncTags(tracks)
	}

	ordered, attempts, err := e.reorder()
	result.Attempts = attempts
	if err != nil {
		e.progress(ProgressEvent{Message: fmt.Sprintf("Reorder failed: %v", err), Level: LevelError})
		return result, err
	}

	if ordered {
		result.Outcome = OutcomeSuccess
		e.progress(ProgressEvent{Message: "Directory order verified", Level: LevelSuccess})
	} else {
		result.Outcome = OutcomeUnverified
		e.progress(ProgressEvent{Message: result.Warning().Error(), Level: LevelWarning})
	}

	if e.settings.CreatePlaylist {
		e.writePlaylist(ctx, tracks)
	}

	if e.mirrorDir != "" {
		result.Mirror, result.MirrorErr = e.Sync(ctx)
	}

	result.Reload = true
	return result, nil
}

// renameAll renames every track whose canonical name differs from its
// current name. It stops at the first collision or I/O error.
func (e *Engine) renameAll(tracks []*model.Track) ([]string, error) {
	var renamed []string

	for i, t := range tracks {
		ordinal := i + 1
		t.Ordinal = ordinal

		canonical, ok := naming.Canonicalize(ioutils.SanitizeFileName(t.Label), ordinal)
		if !ok {
			e.progress(ProgressEvent{Message: fmt.Sprintf("Keeping %q: no title left after removing the number", t.FileName()), Level: LevelWarning})
			continue
		}
		if canonical == t.Name {
			continue
		}

		if err := e.renameTrack(t, canonical); err != nil {
			return renamed, err
		}
		renamed = append(renamed, t.FileName())
	}

	return renamed, nil
}

// renameTrack renames t on disk to name, keeping its extension. name must
// stay inside the working directory.
func (e *Engine) renameTrack(t *model.Track, name string) error {
	if !validName(name) {
		return fmt.Errorf("rename %s to %q: %w", t.FileName(), name, ErrInvalidName)
	}

	dir := e.settings.WorkDir
	from := filepath.Join(dir, t.FileName())
	to := filepath.Join(dir, name+t.Ext)

	if err := e.checkCollision(from, to); err != nil {
		return err
	}
	if err := e.fs.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s: %w", t.FileName(), err)
	}

	e.progress(ProgressEvent{Message: fmt.Sprintf("%s -> %s", t.FileName(), name+t.Ext), Level: LevelVerbose})
	t.Name = name
	t.Label = name
	t.Path = to
	return nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// checkCollision fails when to exists and is not from itself. A case-only
// rename on a case-insensitive filesystem resolves to the same file.
func (e *Engine) checkCollision(from, to string) error {
	toInfo, err := e.fs.Stat(to)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(to), err)
	}

	if fromInfo, err := e.fs.Stat(from); err == nil && os.SameFile(fromInfo, toInfo) {
		return nil
	}
	return &CollisionError{From: filepath.Base(from), To: filepath.Base(to)}
}

func (e *Engine) reorder() (bool, int, error) {
	dir := e.settings.WorkDir
	attempts := max(e.settings.ReorderAttempts, 1)

	for attempt := 1; attempt <= attempts; attempt++ {
		e.progress(ProgressEvent{Message: fmt.Sprintf("Reordering %s (attempt %d/%d)", dir, attempt, attempts), Level: LevelVerbose})

		if err := e.reorderer.Reorder(dir); err != nil {
			return false, attempt, err
		}

		ordered, err := e.reorderer.IsOrdered(dir)
		if err != nil {
			return false, attempt, err
		}
		if ordered {
			return true, attempt, nil
		}
		if attempt < attempts {
			e.progress(ProgressEvent{Message: "Directory still out of order, retrying", Level: LevelWarning})
		}
	}

	return false, attempts, nil
}

// syncTags rewrites track numbers in the ID3 tags. Failures are warnings.
func (e *Engine) syncTags(tracks []*model.Track) {
	for _, t := range tracks {
		title, _ := naming.Title(t.Name)
		if err := e.tagger.SaveTags(t.Path, t.Ordinal, len(tracks), title); err != nil {
			e.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", t.FileName(), err), Level: LevelWarning})
		}
	}
}

func (e *Engine) writePlaylist(ctx context.Context, tracks []*model.Track) {
	dir := e.settings.WorkDir
	name := ioutils.SanitizeFileName(e.settings.PlaylistFileName)
	if name == "" {
		name = "playlist"
	}
	name += e.settings.ToPlaylistFormat().Extension()

	content := e.playlist.CreatePlaylist(filepath.Base(dir), tracks)
	if err := e.fs.WriteFile(ctx, filepath.Join(dir, name), []byte(content)); err != nil {
		e.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		return
	}
	e.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist %s", name), Level: LevelSuccess})
}

// Sync mirrors the working directory without renaming or reordering. It
// returns nil, nil when mirroring is disabled.
func (e *Engine) Sync(ctx context.Context) (*mirror.Report, error) {
	if e.mirrorDir == "" {
		return nil, nil
	}

	e.progress(ProgressEvent{Message: fmt.Sprintf("Mirroring to %s", e.mirrorDir), Level: LevelInfo})

	report, err := e.mirror.Sync(ctx, e.settings.WorkDir, e.mirrorDir)
	if err != nil {
		e.progress(ProgressEvent{Message: fmt.Sprintf("Mirror failed: %v", err), Level: LevelError})
		return report, err
	}

	e.progress(ProgressEvent{
		Message: fmt.Sprintf("Mirror up to date: %d copied, %d removed, %d unchanged", len(report.Copied), len(report.Removed), report.Unchanged),
		Level:   LevelSuccess,
	})
	return report, nil
}

// Rename gives a single track a new label immediately, without reordering
// or mirroring. The label is sanitized for FAT; an empty result is rejected
// with ErrEmptyName.
func (e *Engine) Rename(t *model.Track, label string) error {
	name := ioutils.SanitizeFileName(label)
	if name == "" {
		return ErrEmptyName
	}
	if name == t.Name {
		t.Label = name
		return nil
	}

	e.stopPlayback()
	return e.renameTrack(t, name)
}

// Play starts playback of t.
func (e *Engine) Play(t *model.Track) error {
	if err := e.player.SetSource(t.Path); err != nil {
		return fmt.Errorf("play %s: %w", t.FileName(), err)
	}
	if err := e.player.Play(); err != nil {
		return fmt.Errorf("play %s: %w", t.FileName(), err)
	}
	e.progress(ProgressEvent{Message: fmt.Sprintf("Playing %s", t.FileName()), Level: LevelVerbose})
	return nil
}

// Stop ends playback.
func (e *Engine) Stop() error {
	return e.player.Stop()
}

func (e *Engine) stopPlayback() {
	if err := e.player.Stop(); err != nil {
		e.progress(ProgressEvent{Message: fmt.Sprintf("Error stopping playback: %v", err), Level: LevelWarning})
	}
}

func (e *Engine) mirrorProgress(p mirror.Progress) {
	verb := "Copied"
	if p.Action == mirror.ActionRemove {
		verb = "Removed"
	}
	e.progress(ProgressEvent{Message: fmt.Sprintf("%s %s (%d/%d)", verb, p.Name, p.Done, p.Total), Level: LevelVerbose})

	if e.onMirror != nil {
		e.onMirror(p)
	}
}

func (e *Engine) progress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}
