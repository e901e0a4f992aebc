package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/mp3order/internal/audio"
	"github.com/handiism/mp3order/internal/mirror"
	"github.com/handiism/mp3order/internal/model"
)

// Settings holds all configuration options.
type Settings struct {
	// Directories
	WorkDir     string `json:"work_dir"`
	MirrorDir   string `json:"mirror_dir"`   // explicit mirror; wins over mirror_root
	MirrorRoot  string `json:"mirror_root"`  // per-medium mirrors live below this
	VolumeLabel string `json:"volume_label"` // defaults to the work dir's base name

	// Reorder settings
	Extension       string `json:"extension"`
	ScratchPrefix   string `json:"scratch_prefix"`
	ReorderAttempts int    `json:"reorder_attempts"`

	// Mirror settings
	MirrorConcurrency int `json:"mirror_concurrency"`

	// Tag settings
	SyncTags       bool   `json:"sync_tags"`
	TagTrackNumber string `json:"tag_track_number"` // modify, empty, keep
	TagTitle       string `json:"tag_title"`        // modify, empty, keep

	// Playlist settings
	CreatePlaylist   bool   `json:"create_playlist"`
	PlaylistFormat   string `json:"playlist_format"` // m3u, pls, wpl
	PlaylistFileName string `json:"playlist_file_name"`
	M3UExtended      bool   `json:"m3u_extended"`

	// Player settings
	PlayerCommand string `json:"player_command"` // e.g. "mpg123 -q"; empty disables playback

	// Server settings
	ServerAddress  string   `json:"server_address"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		MirrorRoot: filepath.Join(homeDir, "Music", "mp3order"),

		Extension:       ".mp3",
		ScratchPrefix:   "mp3-",
		ReorderAttempts: 2,

		MirrorConcurrency: 1,

		SyncTags:       false,
		TagTrackNumber: "modify",
		TagTitle:       "keep",

		CreatePlaylist:   false,
		PlaylistFormat:   "m3u",
		PlaylistFileName: "playlist",
		M3UExtended:      true,

		ServerAddress: ":8080",
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "mp3order.json"
	}
	return filepath.Join(dir, "mp3order", "config.json")
}

// Load reads settings from a JSON file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	settings.normalize()

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// normalize repairs values a hand-edited file may get wrong.
func (s *Settings) normalize() {
	if s.Extension != "" && !strings.HasPrefix(s.Extension, ".") {
		s.Extension = "." + s.Extension
	}
	if s.ReorderAttempts < 1 {
		s.ReorderAttempts = 1
	}
	if s.MirrorConcurrency < 1 {
		s.MirrorConcurrency = 1
	}
}

// ToTagConfig converts the tag_* settings.
func (s *Settings) ToTagConfig() *audio.TagConfig {
	return &audio.TagConfig{
		TrackNumber: audio.ParseTagEditAction(strings.ToLower(s.TagTrackNumber)),
		TrackTitle:  audio.ParseTagEditAction(strings.ToLower(s.TagTitle)),
	}
}

// ToPlaylistFormat converts the playlist_format setting.
func (s *Settings) ToPlaylistFormat() model.PlaylistFormat {
	return model.ParsePlaylistFormat(strings.ToLower(s.PlaylistFormat))
}

// ResolveMirrorDir returns the directory the work dir is mirrored to.
//
// An explicit MirrorDir is used as is. Otherwise the mirror lives at
// MirrorRoot/<label>/<volume serial>, so every medium gets its own backup.
// An empty result with a nil error means mirroring is disabled.
func (s *Settings) ResolveMirrorDir() (string, error) {
	if s.MirrorDir != "" {
		return s.MirrorDir, nil
	}
	if s.MirrorRoot == "" || s.WorkDir == "" {
		return "", nil
	}

	serial, err := mirror.VolumeSerial(s.WorkDir)
	if err != nil {
		return "", fmt.Errorf("resolve mirror directory: %w", err)
	}

	label := s.VolumeLabel
	if label == "" {
		label = filepath.Base(filepath.Clean(s.WorkDir))
	}
	return mirror.PathFor(s.MirrorRoot, label, serial), nil
}
