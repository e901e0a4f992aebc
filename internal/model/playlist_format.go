package model

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	// PlaylistFormatM3U creates .m3u playlist files (most widely supported).
	PlaylistFormatM3U PlaylistFormat = iota

	// PlaylistFormatPLS creates .pls playlist files (used by Winamp).
	PlaylistFormatPLS

	// PlaylistFormatWPL creates .wpl playlist files (Windows Media Player).
	PlaylistFormatWPL
)

// ParsePlaylistFormat maps a settings value ("m3u", "pls", "wpl") to a
// PlaylistFormat, falling back to M3U.
func ParsePlaylistFormat(s string) PlaylistFormat {
	switch s {
	case "pls":
		return PlaylistFormatPLS
	case "wpl":
		return PlaylistFormatWPL
	default:
		return PlaylistFormatM3U
	}
}

// Extension returns the file extension, including the dot.
func (pf PlaylistFormat) Extension() string {
	switch pf {
	case PlaylistFormatPLS:
		return ".pls"
	case PlaylistFormatWPL:
		return ".wpl"
	default:
		return ".m3u"
	}
}
