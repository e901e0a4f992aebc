// Package mirror keeps a backup directory in step with a working directory.
//
// Sync is one way and keyed by file name: destination files without a source
// counterpart are removed, and source files that are missing or differ in
// byte length are copied. Length is the only staleness signal.
//
//	m := mirror.New(ioutils.NewOS(), ".mp3", 1, nil)
//	report, err := m.Sync(ctx, "/media/usb", "/home/me/Music/USB/1A2B3C4D")
//
// # Per-medium directories
//
// PathFor and VolumeSerial derive a backup location from the identity of the
// removable medium, so each stick gets its own mirror:
//
//	serial, err := mirror.VolumeSerial("/media/usb")
//	dst := mirror.PathFor("/home/me/Music", "USB", serial)
package mirror
