package binlog

import (
	"io"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pingcap/errors"
)

// ExtendedDecoder dumps events this package keeps opaque, such as row and
// table map events, with go-mysql's decoder. Prime it with the log's format
// description event first so post-header lengths are known.
type ExtendedDecoder struct {
	parser *replication.BinlogParser
	primed bool
}

// NewExtendedDecoder returns an unprimed decoder.
func NewExtendedDecoder() *ExtendedDecoder {
	return &ExtendedDecoder{parser: replication.NewBinlogParser()}
}

// Prime feeds the format description event to the decoder.
func (d *ExtendedDecoder) Prime(fde *Event) error {
	if err := fde.expect(replication.FORMAT_DESCRIPTION_EVENT); err != nil {
		return err
	}
	if _, err := d.parse(fde); err != nil {
		return err
	}
	d.primed = true
	return nil
}

// Primed reports whether Prime succeeded.
func (d *ExtendedDecoder) Primed() bool {
	return d.primed
}

// Dump writes go-mysql's rendering of ev to w.
func (d *ExtendedDecoder) Dump(w io.Writer, ev *Event) error {
	parsed, err := d.parse(ev)
	if err != nil {
		return err
	}
	parsed.Dump(w)
	return nil
}

func (d *ExtendedDecoder) parse(ev *Event) (parsed *replication.BinlogEvent, err error) {
	// go-mysql trusts the lengths it reads; corrupt input can panic.
	defer func() {
		if r := recover(); r != nil {
			parsed = nil
			err = errors.Annotatef(ErrMalformedBody, "%s at %d: decoder panic: %v", ev.TypeName(), ev.Offset, r)
		}
	}()
	parsed, err = d.parser.Parse(ev.Raw())
	if err != nil {
		return nil, errors.Annotatef(ErrMalformedBody, "%s at %d: %v", ev.TypeName(), ev.Offset, err)
	}
	return parsed, nil
}
