//go:build !linux && !darwin

package mirror

import (
	"errors"
)

// VolumeSerial is not available on this platform; configure the mirror
// directory or volume serial explicitly.
func VolumeSerial(path string) (uint32, error) {
	return 0, errors.New("volume serial not supported on this platform")
}
