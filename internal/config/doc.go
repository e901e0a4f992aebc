// Package config provides configuration management for mp3order.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Resolving the per-medium mirror directory
//   - Mapping tag_* and playlist_format values onto audio and model types
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // A missing file is not an error; defaults are returned
//	}
//
// Command line flags are applied on top of the loaded settings by each
// command.
//
// # Mirror Directory
//
// With mirror_dir unset, the backup of a medium lives at
// mirror_root/<volume label>/<volume serial>:
//
//	dir, err := settings.ResolveMirrorDir()
//	// ~/Music/mp3order/USB/1A2B3C4D
package config
