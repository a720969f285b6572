package binlog

import (
	"github.com/pingcap/errors"
)

var (
	// ErrShortRead is returned when fewer bytes than a full header are available.
	ErrShortRead = errors.New("short read")
	// ErrSeek is returned for offsets that cannot be positioned to.
	ErrSeek = errors.New("invalid seek offset")
	// ErrIO wraps a failure of the underlying file.
	ErrIO = errors.New("i/o error")
	// ErrInvalidLength is returned when an event declares a length below the header size.
	ErrInvalidLength = errors.New("invalid event length")
	// ErrAllocation is returned when an event declares a body larger than the configured cap.
	ErrAllocation = errors.New("event too large to allocate")
	// ErrTruncatedBody is returned when the file ends before the declared event end.
	ErrTruncatedBody = errors.New("truncated event body")
	// ErrMalformedBody is returned when a body violates its internal length constraints.
	ErrMalformedBody = errors.New("malformed event body")
	// ErrUnsupportedFormat is returned when the file is not a version 4 binlog.
	ErrUnsupportedFormat = errors.New("unsupported binlog format")
	// ErrNotFound is returned when a scan or search finds no plausible event.
	ErrNotFound = errors.New("no event found")
	// ErrWrongType is returned when a typed view is requested for another event type.
	ErrWrongType = errors.New("wrong event type")
	// ErrEndOfLog is returned by Next once the last event has been read.
	ErrEndOfLog = errors.New("end of log")
)

// IsNotFound reports whether err means a scan found nothing, as opposed to failing.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// IsIOError reports whether err came from the underlying file.
func IsIOError(err error) bool {
	switch errors.Cause(err) {
	case ErrIO, ErrSeek:
		return true
	}
	return false
}

// IsBodyError reports whether err affects a single event's body only.
// The walk can continue past such an event.
func IsBodyError(err error) bool {
	switch errors.Cause(err) {
	case ErrMalformedBody, ErrWrongType:
		return true
	}
	return false
}
