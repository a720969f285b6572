package binlog

import (
	"github.com/pingcap/errors"
)

// DefaultMaxEventLength caps the body allocation for a single event.
// Statements are generally limited to 16MB by the server.
const DefaultMaxEventLength = 16 * 1048576

// Event is one decoded record. The body is owned by the event; typed views
// alias it and stay valid for as long as the event is referenced.
type Event struct {
	Header
	// Offset is where the event starts in the file.
	Offset int64
	// Body holds the Length-HeaderSize bytes following the header.
	Body []byte
}

// End returns the offset just past the event, computed from its length.
func (e *Event) End() int64 {
	return e.Offset + int64(e.Length)
}

// Raw returns a fresh copy of the event as it appears on the wire.
func (e *Event) Raw() []byte {
	raw := make([]byte, 0, HeaderSize+len(e.Body))
	raw = AppendHeader(raw, e.Header)
	return append(raw, e.Body...)
}

// TypeName returns the event's type name.
func (e *Event) TypeName() string {
	return TypeName(e.Type)
}

// DecodeBody reads the body declared by h, which starts at off. maxLength
// bounds the declared event length; zero means DefaultMaxEventLength.
func DecodeBody(src Source, off int64, h Header, maxLength uint32) ([]byte, error) {
	if h.Length < HeaderSize {
		return nil, errors.Annotatef(ErrInvalidLength, "event at %d declares %d bytes", off, h.Length)
	}
	if maxLength == 0 {
		maxLength = DefaultMaxEventLength
	}
	if h.Length >= maxLength {
		return nil, errors.Annotatef(ErrAllocation, "event at %d declares %d bytes", off, h.Length)
	}
	body := make([]byte, h.Length-HeaderSize)
	if len(body) == 0 {
		return body, nil
	}
	if err := readFull(src, body, off+HeaderSize, ErrTruncatedBody); err != nil {
		return nil, err
	}
	return body, nil
}

// ReadEvent decodes the header and body at off without any plausibility
// check.
func ReadEvent(src Source, off int64, maxLength uint32) (*Event, error) {
	h, err := DecodeHeader(src, off)
	if err != nil {
		return nil, err
	}
	body, err := DecodeBody(src, off, h, maxLength)
	if err != nil {
		return nil, err
	}
	return &Event{Header: h, Offset: off, Body: body}, nil
}
