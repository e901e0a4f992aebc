// Package audio provides the audio file services around a reorder:
// ID3 track numbering, tag reading for display, and playlist generation.
//
// # ID3 Tagging
//
// After renumbering, the TRCK frame can be made to match the new position:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags(track.Path, track.Ordinal, folder.Len(), title)
//
// # Reading Metadata
//
//	md, err := audio.ReadMetadata("/media/usb/01 - Song.mp3")
//	fmt.Println(md.Artist, md.Title)
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist("USB", folder.Tracks)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
package audio
