//go:build unix

package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/stabla/syntegrity/synt/filesystem/common"
)

// hashMapped digests the file through a read-only memory mapping. A non-zero
// window feeds the mapping to the digest in window-sized slices; zero feeds it
// in a single write. Mapping failures fall back to streamed reads.
func (fh *FileHasher) hashMapped(path string, size int64, window int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %v", common.ErrUnreadableFile, path, err)
	}
	defer file.Close()

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		fh.logger.Debug("mmap failed, falling back to streamed read", "path", path, "error", err)
		return fh.hashStream(path)
	}
	defer unix.Munmap(data)

	hasher := sha256.New()
	if window <= 0 {
		hasher.Write(data)
	} else {
		for off := 0; off < len(data); off += window {
			end := off + window
			if end > len(data) {
				end = len(data)
			}
			hasher.Write(data[off:end])
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
