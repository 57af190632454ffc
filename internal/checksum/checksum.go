// Package checksum computes the 128-bit content fingerprints used to
// identify archived files. The fingerprint is an MD5 digest streamed in
// fixed-size blocks and carried as a uuid.UUID so it can double as a
// unique database key. It is an identity, not a security boundary.
package checksum

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// DefaultBlockSize is the read buffer size used when no explicit block
// size is configured. Changing the block size after deployment does not
// change the digest, only the I/O pattern.
const DefaultBlockSize = 2 * 1024 * 1024

// Sum is a 128-bit content checksum. The zero value (uuid.Nil) is the
// sentinel meaning "no checksum was computed".
type Sum = uuid.UUID

// Zero is the sentinel checksum.
var Zero = uuid.Nil

// File computes the checksum of the file at path, reading it in blocks
// of blockSize bytes. A blockSize <= 0 falls back to DefaultBlockSize.
func File(path string, blockSize int) (Sum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Zero, fmt.Errorf("opening file for checksum: %w", err)
	}
	defer f.Close()

	return Reader(f, blockSize)
}

// Reader computes the checksum of everything readable from r.
func Reader(r io.Reader, blockSize int) (Sum, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	h := md5.New()
	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return Zero, fmt.Errorf("reading for checksum: %w", err)
	}

	// The digest bytes are accumulated big-endian into the 128-bit key,
	// which is exactly uuid's byte order.
	var sum Sum
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// FileSize returns the byte size of the file at path.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}
