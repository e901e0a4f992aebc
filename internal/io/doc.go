// Package ioutils provides file system utilities for mp3order.
//
// This package contains:
//   - FS, the filesystem surface the engine is restricted to
//   - OS, the host implementation of FS
//   - File copying and writing
//   - Filename sanitization for FAT formatted media
//   - Extension-filtered directory listings
//
// # Enumeration Order
//
// Portable players play files in the order the directory enumerates them, not
// in name order. OS.ReadDir therefore returns entries exactly as the platform
// yields them, unlike os.ReadDir which sorts:
//
//	fsys := ioutils.NewOS()
//	names, err := ioutils.ListFiles(fsys, "/media/usb", ".mp3") // enumeration order
//	sorted, err := ioutils.ListSorted(fsys, "/media/usb", ".mp3") // name order
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// The memfs subpackage provides an in-memory FS with FAT-like slot reuse for
// tests that need a deterministic enumeration order.
package ioutils
