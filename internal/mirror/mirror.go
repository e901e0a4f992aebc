package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	ioutils "github.com/handiism/mp3order/internal/io"
)

// Plan lists what Sync has to do to make a destination match its source.
type Plan struct {
	// Remove holds destination file names with no counterpart in the source.
	Remove []string

	// Copy holds source file names missing from the destination or whose
	// byte length differs there.
	Copy []string

	// Unchanged counts source files already present with the same length.
	Unchanged int
}

// Empty reports whether the destination is already in sync.
func (p *Plan) Empty() bool {
	return len(p.Remove) == 0 && len(p.Copy) == 0
}

// Total is the number of file operations in the plan.
func (p *Plan) Total() int {
	return len(p.Remove) + len(p.Copy)
}

// Report is the outcome of a Sync.
type Report struct {
	Removed   []string `json:"removed"`
	Copied    []string `json:"copied"`
	Unchanged int      `json:"unchanged"`
}

// Action says what happened to a single file.
type Action int

const (
	ActionRemove Action = iota
	ActionCopy
)

// Progress is passed to the progress callback after each file operation.
type Progress struct {
	Action Action
	Name   string
	Done   int
	Total  int
}

// Mirror keeps a destination directory equal to a source directory, one way.
//
// Only files carrying the tracked extension are considered. A destination
// file is stale when its byte length differs from the source; files edited
// in place without changing length are not detected.
type Mirror struct {
	fs          ioutils.FS
	ext         string
	concurrency int
	onProgress  func(Progress)
}

// New creates a Mirror for files with ext. concurrency limits parallel
// copies; values below 1 mean sequential.
func New(fsys ioutils.FS, ext string, concurrency int, onProgress func(Progress)) *Mirror {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Mirror{
		fs:          fsys,
		ext:         ext,
		concurrency: concurrency,
		onProgress:  onProgress,
	}
}

// Plan compares src and dst without changing either. A missing dst counts as
// empty.
func (m *Mirror) Plan(src, dst string) (*Plan, error) {
	srcNames, err := ioutils.ListSorted(m.fs, src, m.ext)
	if err != nil {
		return nil, err
	}

	dstNames, err := ioutils.ListSorted(m.fs, dst, m.ext)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	inSource := make(map[string]bool, len(srcNames))
	for _, name := range srcNames {
		inSource[name] = true
	}

	plan := &Plan{}
	inDest := make(map[string]bool, len(dstNames))
	for _, name := range dstNames {
		inDest[name] = true
		if !inSource[name] {
			plan.Remove = append(plan.Remove, name)
		}
	}

	for _, name := range srcNames {
		if !inDest[name] {
			plan.Copy = append(plan.Copy, name)
			continue
		}
		same, err := m.sameLength(filepath.Join(src, name), filepath.Join(dst, name))
		if err != nil {
			return nil, err
		}
		if same {
			plan.Unchanged++
		} else {
			plan.Copy = append(plan.Copy, name)
		}
	}

	return plan, nil
}

func (m *Mirror) sameLength(a, b string) (bool, error) {
	ai, err := m.fs.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := m.fs.Stat(b)
	if err != nil {
		return false, err
	}
	return ai.Size() == bi.Size(), nil
}

// Sync makes dst match src: removes destination files absent from the source,
// then copies files that are missing or differ in length. dst is created when
// needed. Nothing under src is modified.
//
// Sync is not transactional. After a failure the destination may be partly
// updated; running Sync again converges.
func (m *Mirror) Sync(ctx context.Context, src, dst string) (*Report, error) {
	if err := m.fs.MkdirAll(dst); err != nil {
		return nil, fmt.Errorf("create mirror directory: %w", err)
	}

	plan, err := m.Plan(src, dst)
	if err != nil {
		return nil, err
	}

	report := &Report{Unchanged: plan.Unchanged}
	total := plan.Total()
	done := 0

	for _, name := range plan.Remove {
		if err := m.fs.Remove(filepath.Join(dst, name)); err != nil {
			return report, fmt.Errorf("remove %s: %w", name, err)
		}
		report.Removed = append(report.Removed, name)
		done++
		m.progress(Progress{Action: ActionRemove, Name: name, Done: done, Total: total})
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for _, name := range plan.Copy {
		name := name
		g.Go(func() error {
			if err := m.fs.CopyFile(ctx, filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
				return fmt.Errorf("copy %s: %w", name, err)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Copied = append(report.Copied, name)
			done++
			m.progress(Progress{Action: ActionCopy, Name: name, Done: done, Total: total})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func (m *Mirror) progress(p Progress) {
	if m.onProgress != nil {
		m.onProgress(p)
	}
}
