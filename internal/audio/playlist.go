package audio

import (
	"fmt"
	"strings"

	"github.com/handiism/mp3order/internal/model"
	"github.com/handiism/mp3order/internal/naming"
)

// PlaylistCreator generates playlist files listing tracks in play order.
//
// Some players honour a playlist even when they ignore file names, so a
// playlist written next to the tracks is a second way of fixing the order.
//
// Example:
//
//	creator := NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist("USB", folder.Tracks)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:-1,Song Title
//	// 01 - Song Title.mp3
type PlaylistCreator struct {
	format   model.PlaylistFormat
	extended bool // For M3U: include EXTINF lines
}

// NewPlaylistCreator creates a new PlaylistCreator.
//
// extended only affects M3U output.
func NewPlaylistCreator(format model.PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// CreatePlaylist renders tracks, referenced by relative file name, in the
// configured format.
func (p *PlaylistCreator) CreatePlaylist(title string, tracks []*model.Track) string {
	switch p.format {
	case model.PlaylistFormatPLS:
		return p.createPLS(tracks)
	case model.PlaylistFormatWPL:
		return p.createWPL(title, tracks)
	default:
		return p.createM3U(tracks)
	}
}

func displayTitle(t *model.Track) string {
	title, _ := naming.Title(t.Name)
	return title
}

func (p *PlaylistCreator) createM3U(tracks []*model.Track) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, track := range tracks {
		if p.extended {
			sb.WriteString(fmt.Sprintf("#EXTINF:-1,%s\n", displayTitle(track)))
		}
		sb.WriteString(track.FileName())
		sb.WriteString("\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist. Lengths are unknown and written as -1.
func (p *PlaylistCreator) createPLS(tracks []*model.Track) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, track := range tracks {
		n := i + 1
		sb.WriteString(fmt.Sprintf("File%d=%s\n", n, track.FileName()))
		sb.WriteString(fmt.Sprintf("Title%d=%s\n", n, displayTitle(track)))
		sb.WriteString(fmt.Sprintf("Length%d=-1\n", n))
	}

	sb.WriteString(fmt.Sprintf("NumberOfEntries=%d\n", len(tracks)))
	sb.WriteString("Version=2\n")

	return sb.String()
}

func (p *PlaylistCreator) createWPL(title string, tracks []*model.Track) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, track := range tracks {
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\"/>\n", escapeXML(track.FileName())))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// escapeXML escapes special XML characters in a string.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
