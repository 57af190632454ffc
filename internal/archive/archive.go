// Package archive places externally produced files at canonical
// locations, verifying byte-exact integrity via streamed content
// checksums. Copying and hashing run as two concurrent workers that
// are always joined before a call returns.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/SGullin/arpa/internal/checksum"
	"github.com/SGullin/arpa/internal/logging"
)

// IntegrityError reports a checksum or size mismatch between source
// and destination after a copy. This is fatal: the copy cannot be
// trusted.
type IntegrityError struct {
	SourceSum       checksum.Sum
	DestinationSum  checksum.Sum
	SourceSize      int64
	DestinationSize int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf(
		"copying file failed: checksum %s -> %s, size %d -> %d",
		e.SourceSum, e.DestinationSum, e.SourceSize, e.DestinationSize,
	)
}

// WorkerError reports a worker that panicked instead of finishing.
// Distinct from I/O and integrity errors so callers can tell a crashed
// worker from a failed copy.
type WorkerError struct {
	Panic any
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("archive worker panicked: %v", e.Panic)
}

// Archiver copies or moves files into the archive tree.
type Archiver struct {
	// Move removes the source after a verified copy.
	Move bool
	// BlockSize is the checksum read buffer size.
	BlockSize int
	// Logger receives progress and policy warnings.
	Logger logging.Logger
}

// New creates an Archiver. A nil logger discards output.
func New(move bool, blockSize int, logger logging.Logger) *Archiver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Archiver{Move: move, BlockSize: blockSize, Logger: logger}
}

// Archive puts the file at source into directory/name and returns the
// verified content checksum together with the file's canonical path.
//
// If the destination already exists it is never overwritten: a
// same-size destination is compared by checksum (a verified duplicate
// means the source is safe to remove), while a size mismatch is only
// logged and the zero checksum returned. A fresh copy is verified by
// checksum and size on both ends before any source removal.
func (a *Archiver) Archive(source, directory, name string) (checksum.Sum, string, error) {
	destination := filepath.Join(directory, name)

	if source == destination {
		a.Logger.Warn("file is already where it should be", "path", source)
		return checksum.Zero, source, nil
	}

	if err := os.MkdirAll(directory, 0755); err != nil {
		return checksum.Zero, source, fmt.Errorf("creating archive directory: %w", err)
	}

	if _, err := os.Stat(destination); err == nil {
		sum, err := a.checkEquality(source, destination)
		return sum, source, err
	} else if !os.IsNotExist(err) {
		return checksum.Zero, source, fmt.Errorf("checking destination: %w", err)
	}

	srcSum, dstSize, err := a.copyAndHash(source, destination)
	if err != nil {
		return checksum.Zero, source, err
	}

	// The copy has finished; hash what actually landed on disk.
	dstSum, err := checksum.File(destination, a.BlockSize)
	if err != nil {
		return checksum.Zero, source, err
	}
	srcSize, err := checksum.FileSize(source)
	if err != nil {
		return checksum.Zero, source, err
	}

	if srcSum != dstSum || srcSize != dstSize {
		return checksum.Zero, source, &IntegrityError{
			SourceSum:       srcSum,
			DestinationSum:  dstSum,
			SourceSize:      srcSize,
			DestinationSize: dstSize,
		}
	}

	if a.Move {
		if err := os.Remove(source); err != nil {
			return checksum.Zero, source, fmt.Errorf("removing source after move: %w", err)
		}
		a.Logger.Info("successfully moved file", "from", source, "to", destination)
	} else {
		a.Logger.Info("successfully copied file", "from", source, "to", destination)
	}

	return srcSum, destination, nil
}

// copyAndHash copies source to destination while hashing the source,
// as two concurrent workers. Both only read the source, so they may
// interleave freely. Returns the source checksum and the number of
// bytes written to the destination.
func (a *Archiver) copyAndHash(source, destination string) (checksum.Sum, int64, error) {
	var (
		srcSum  checksum.Sum
		dstSize int64
	)

	var g errgroup.Group
	g.Go(a.worker(func() error {
		n, err := copyFile(source, destination)
		dstSize = n
		return err
	}))
	g.Go(a.worker(func() error {
		sum, err := checksum.File(source, a.BlockSize)
		srcSum = sum
		return err
	}))

	if err := g.Wait(); err != nil {
		return checksum.Zero, 0, err
	}
	return srcSum, dstSize, nil
}

// checkEquality handles an already existing destination: compare
// sizes, then both checksums concurrently. Never overwrites.
func (a *Archiver) checkEquality(source, destination string) (checksum.Sum, error) {
	a.Logger.Warn("file already exists, will not overwrite", "path", destination)

	srcSize, err := checksum.FileSize(source)
	if err != nil {
		return checksum.Zero, err
	}
	dstSize, err := checksum.FileSize(destination)
	if err != nil {
		return checksum.Zero, err
	}
	if srcSize != dstSize {
		a.Logger.Warn("existing file differs in size",
			"existing_bytes", dstSize, "new_bytes", srcSize)
		return checksum.Zero, nil
	}

	var srcSum, dstSum checksum.Sum
	var g errgroup.Group
	g.Go(a.worker(func() error {
		sum, err := checksum.File(source, a.BlockSize)
		srcSum = sum
		return err
	}))
	g.Go(a.worker(func() error {
		sum, err := checksum.File(destination, a.BlockSize)
		dstSum = sum
		return err
	}))
	if err := g.Wait(); err != nil {
		return checksum.Zero, err
	}

	if srcSum == dstSum {
		a.Logger.Info("files are identical, the source can be removed", "path", source)
	} else {
		a.Logger.Warn("existing file has the same size but different content",
			"path", destination)
	}

	return srcSum, nil
}

// worker wraps a task so that a panic surfaces as a WorkerError
// instead of crashing the program. No partial result survives a
// failed worker: the group's first error wins and Archive returns it.
func (a *Archiver) worker(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &WorkerError{Panic: r}
			}
		}()
		return fn()
	}
}

func copyFile(source, destination string) (int64, error) {
	in, err := os.Open(source)
	if err != nil {
		return 0, fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(destination)
	if err != nil {
		return 0, fmt.Errorf("creating destination: %w", err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("copying: %w", err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("closing destination: %w", err)
	}
	return n, nil
}
