// Package engine applies a user-chosen play order to a directory of audio
// files on removable media.
//
// Players on such media play files in directory entry order, not name
// order. Apply renames every track to "NN - title" for its position, moves
// the directory entries through a scratch directory so they are laid out in
// ascending order, verifies the result, and mirrors the directory to a
// backup.
//
// # Usage
//
//	eng := engine.New(settings, func(ev engine.ProgressEvent) {
//	    fmt.Println(ev.Message)
//	})
//
//	folder, err := eng.Load()
//	folder.Move(2, 0)
//
//	result, err := eng.Apply(ctx, folder.Tracks)
//	if err != nil {
//	    // collision or I/O error; earlier renames are kept
//	}
//	if w := result.Warning(); w != nil {
//	    // renamed, but the order could not be verified
//	}
//	if result.Reload {
//	    folder, err = eng.Load()
//	}
//
// # Progress Events
//
// Every step reports through the callback passed to New, with one of
// LevelInfo, LevelVerbose, LevelWarning, LevelError or LevelSuccess.
// Verbose events cover single file operations.
package engine
