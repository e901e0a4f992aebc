package mirror

import (
	"fmt"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/mp3order/internal/io"
)

// PathFor returns the mirror directory for one medium:
// root/<label>/<serial as 8 upper-case hex digits>. The same medium always
// maps to the same directory, so repeated insertions sync against the same
// backup. An empty label becomes "volume".
func PathFor(root, label string, serial uint32) string {
	label = ioutils.SanitizeFileName(strings.TrimSpace(label))
	if label == "" {
		label = "volume"
	}
	return filepath.Join(root, label, fmt.Sprintf("%08X", serial))
}
