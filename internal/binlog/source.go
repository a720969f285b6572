package binlog

import (
	"io"
	"os"

	"github.com/pingcap/errors"
)

// Source is a random-access view of a binlog file whose size may grow.
type Source interface {
	io.ReaderAt
	// Size returns the current length of the underlying data.
	Size() (int64, error)
}

// FileSource reads from an open file. The caller owns the file.
type FileSource struct {
	f *os.File
}

// NewFileSource wraps f.
func NewFileSource(f *os.File) *FileSource {
	return &FileSource{f: f}
}

// ReadAt implements io.ReaderAt.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size stats the file.
func (s *FileSource) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, errors.Annotatef(ErrIO, "stat %s: %v", s.f.Name(), err)
	}
	return fi.Size(), nil
}

// Name returns the file name.
func (s *FileSource) Name() string {
	return s.f.Name()
}

// BytesSource serves an in-memory binlog.
type BytesSource []byte

// ReadAt implements io.ReaderAt.
func (b BytesSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Trace(ErrSeek)
	}
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns len(b).
func (b BytesSource) Size() (int64, error) {
	return int64(len(b)), nil
}

// readFull reads len(p) bytes at off and classifies failures.
// A short read is reported through the short error so callers can pick
// between ErrShortRead and ErrTruncatedBody.
func readFull(src Source, p []byte, off int64, short error) error {
	if off < 0 {
		return errors.Annotatef(ErrSeek, "offset %d", off)
	}
	n, err := src.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Annotatef(short, "read %d of %d bytes at %d", n, len(p), off)
	}
	if errors.Cause(err) == ErrSeek {
		return errors.Annotatef(ErrSeek, "offset %d", off)
	}
	return errors.Annotatef(ErrIO, "read at %d: %v", off, err)
}
