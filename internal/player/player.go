// Package player drives audio playback for previewing tracks.
//
// Playback holds files open, which blocks renames on some platforms, so the
// engine stops the player before touching the directory.
package player

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ErrNoSource is returned by Play when no source has been set.
var ErrNoSource = errors.New("no source set")

// Player is the playback capability the engine and UIs depend on.
type Player interface {
	SetSource(path string) error
	Play() error
	Stop() error
}

// Nop is a Player that does nothing. Used when no player is configured.
type Nop struct{}

func (Nop) SetSource(string) error { return nil }
func (Nop) Play() error            { return nil }
func (Nop) Stop() error            { return nil }

// Exec plays files by running an external command with the file appended
// as the last argument, e.g. "mpg123 -q".
type Exec struct {
	args []string

	mu     sync.Mutex
	source string
	cmd    *exec.Cmd
	done   chan struct{}
}

// NewExec parses command into program and arguments. An empty command
// yields an error; callers fall back to Nop.
func NewExec(command string) (*Exec, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("empty player command")
	}
	return &Exec{args: args}, nil
}

// New returns an Exec for command, or Nop when command is empty.
func New(command string) (Player, error) {
	if strings.TrimSpace(command) == "" {
		return Nop{}, nil
	}
	return NewExec(command)
}

// SetSource selects the file the next Play starts.
func (e *Exec) SetSource(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = path
	return nil
}

// Play stops any running playback and starts the player on the source.
func (e *Exec) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == "" {
		return ErrNoSource
	}
	if err := e.stopLocked(); err != nil {
		return err
	}

	args := append(append([]string(nil), e.args[1:]...), e.source)
	cmd := exec.Command(e.args[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", e.args[0], err)
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	e.cmd = cmd
	e.done = done
	return nil
}

// Stop ends playback and waits for the player to exit. Stopping an idle
// player is not an error.
func (e *Exec) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Exec) stopLocked() error {
	if e.cmd == nil {
		return nil
	}
	cmd, done := e.cmd, e.done
	e.cmd, e.done = nil, nil

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop player: %w", err)
	}
	<-done
	return nil
}

// Playing reports whether a player process is still running.
func (e *Exec) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}
