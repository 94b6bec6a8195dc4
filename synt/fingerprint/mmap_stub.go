//go:build !unix

package fingerprint

// hashMapped is a stub for platforms without memory mapping support. Streamed
// reads produce the identical digest.
func (fh *FileHasher) hashMapped(path string, size int64, window int) (string, error) {
	return fh.hashStream(path)
}
