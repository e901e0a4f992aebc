//go:build linux || darwin

package mirror

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// VolumeSerial returns a stable identifier for the filesystem holding path,
// folded from the kernel's filesystem id.
func VolumeSerial(path string) (uint32, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return uint32(st.Fsid.Val[0]) ^ uint32(st.Fsid.Val[1]), nil
}
