// Package model defines the core data structures used throughout mp3order.
//
// # Track
//
// Track is one file in the working directory:
//
//	track := model.NewTrack("/media/usb", "abc.mp3", 1)
//	fmt.Println(track.Name, track.Ext) // "abc" ".mp3"
//
// # Folder
//
// Folder is the ordered sequence of tracks the user is arranging. UI
// collaborators call Move, Reorder and SetLabel, then hand the folder's
// Tracks to the engine:
//
//	folder := model.NewFolder("/media/usb", names)
//	folder.Move(2, 0) // third track becomes first
//	folder.SetLabel("abc", "Intro")
//	result, err := eng.Apply(ctx, folder.Tracks)
//
// Nothing in this package touches the filesystem.
package model
