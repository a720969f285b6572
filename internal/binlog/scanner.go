package binlog

import (
	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// Direction is the step taken after each rejected offset.
type Direction int

// Scan directions.
const (
	Forward  Direction = 1
	Backward Direction = -1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// scanChunk is how much of the file a scan buffers at a time.
const scanChunk = 64 * 1024

// Scanner probes byte offsets for the nearest plausible event.
type Scanner struct {
	src     Source
	bounds  *Bounds
	maxScan int64
	maxLen  uint32
	refine  int
	log     *zap.Logger
}

// NewScanner returns a scanner over src that accepts headers passing bounds.
func NewScanner(src Source, bounds *Bounds, opts ...Option) *Scanner {
	o := buildOptions(opts)
	return &Scanner{
		src:     src,
		bounds:  bounds,
		maxScan: o.cfg.MaxScanBytes,
		maxLen:  o.cfg.MaxEventLength,
		refine:  o.cfg.RefineLimit,
		log:     o.log,
	}
}

// window buffers a stretch of the file so probing does not cost a read
// per byte.
type window struct {
	src  Source
	size int64
	base int64
	buf  []byte
}

func (w *window) header(off int64, dir Direction) ([]byte, error) {
	if off >= w.base && off+HeaderSize <= w.base+int64(len(w.buf)) {
		return w.buf[off-w.base : off-w.base+HeaderSize], nil
	}
	start := off
	if dir == Backward {
		start = off + HeaderSize - scanChunk
		if start < 0 {
			start = 0
		}
	}
	end := start + scanChunk
	if end > w.size {
		end = w.size
	}
	if end-start < HeaderSize || off+HeaderSize > end {
		return nil, errors.Annotatef(ErrShortRead, "header at %d past end %d", off, w.size)
	}
	if cap(w.buf) < scanChunk {
		w.buf = make([]byte, scanChunk)
	}
	w.buf = w.buf[:end-start]
	if err := readFull(w.src, w.buf, start, ErrShortRead); err != nil {
		w.buf = w.buf[:0]
		return nil, err
	}
	w.base = start
	return w.buf[off-w.base : off-w.base+HeaderSize], nil
}

func (s *Scanner) size() (int64, error) {
	size, err := s.src.Size()
	if err != nil {
		if IsIOError(err) {
			return 0, err
		}
		return 0, errors.Annotatef(ErrIO, "size: %v", err)
	}
	return size, nil
}

// Nearest returns the first plausible event found by stepping from start in
// dir. It never probes outside [0, size-HeaderSize], clamping start into
// that range when dir points back into it, and gives up with ErrNotFound
// after MaxScanBytes probes.
func (s *Scanner) Nearest(start int64, dir Direction) (*Event, error) {
	size, err := s.size()
	if err != nil {
		return nil, err
	}
	w := &window{src: s.src, size: size}
	last := size - HeaderSize
	off := start
	if dir == Backward && off > last {
		off = last
	}
	if dir == Forward && off < 0 {
		off = 0
	}
	for n := int64(0); n < s.maxScan && off >= 0 && off <= last; n++ {
		buf, err := w.header(off, dir)
		if err != nil {
			if errors.Cause(err) == ErrShortRead {
				break
			}
			return nil, err
		}
		h := ParseHeader(buf)
		if s.bounds.LooksValid(h) && off+int64(h.Length) <= size {
			body, err := DecodeBody(s.src, off, h, s.maxLen)
			if err != nil {
				return nil, err
			}
			s.log.Debug("found event",
				zap.Int64("offset", off),
				zap.Int64("start", start),
				zap.String("type", TypeName(h.Type)))
			return &Event{Header: h, Offset: off, Body: body}, nil
		}
		off += int64(dir)
	}
	s.log.Debug("no plausible event",
		zap.Int64("start", start),
		zap.Int64("stopped", off),
		zap.Stringer("direction", dir))
	return nil, errors.Annotatef(ErrNotFound, "no event %s of offset %d", dir, start)
}

// eventAt returns the event at exactly off, or nil if the header there is
// not plausible.
func (s *Scanner) eventAt(off, size int64) (*Event, error) {
	if off < 0 || off+HeaderSize > size {
		return nil, nil
	}
	h, err := DecodeHeader(s.src, off)
	if err != nil {
		if errors.Cause(err) == ErrShortRead {
			return nil, nil
		}
		return nil, err
	}
	if !s.bounds.LooksValid(h) || off+int64(h.Length) > size {
		return nil, nil
	}
	body, err := DecodeBody(s.src, off, h, s.maxLen)
	if err != nil {
		return nil, err
	}
	return &Event{Header: h, Offset: off, Body: body}, nil
}
