package binlog

import (
	"time"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// State is the cursor state of a Parser.
type State int

// Parser states.
const (
	StateUninitialized State = iota
	StateReady
	StateEndOfLog
	StateError
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateEndOfLog:
		return "end-of-log"
	case StateError:
		return "error"
	}
	return "uninitialized"
}

// Parser is a cursor over one binlog. It learns its acceptance bounds from
// the format description event and the event after it, then walks the log
// by event length. It is not safe for concurrent use. The Source is owned
// by the caller.
type Parser struct {
	src     Source
	name    string
	cfg     Config
	log     *zap.Logger
	bounds  Bounds
	scanner *Scanner

	fileSize  int64
	offset    int64
	state     State
	err       error
	eofBySize bool

	fde        *FormatDescription
	hasReadFDE bool
}

// NewParser opens a session on src. It fails with ErrUnsupportedFormat when
// the log does not start with a version 4 format description event.
func NewParser(src Source, opts ...Option) (*Parser, error) {
	o := buildOptions(opts)
	p := &Parser{
		src:    src,
		name:   o.name,
		cfg:    o.cfg,
		log:    o.log,
		offset: MagicSize,
		bounds: Bounds{
			MinTimestamp:   o.cfg.MinTimestamp,
			Fudge:          o.cfg.TimestampFudge,
			MaxEventLength: o.cfg.MaxEventLength,
			Now:            o.now,
		},
	}
	if p.name == "" {
		if named, ok := src.(interface{ Name() string }); ok {
			p.name = named.Name()
		}
	}
	p.scanner = NewScanner(src, &p.bounds, WithConfig(o.cfg), WithLogger(o.log))
	if err := p.readFormatDescription(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) readFormatDescription() error {
	if err := p.Refresh(); err != nil {
		return err
	}
	ev, err := ReadEvent(p.src, MagicSize, p.cfg.MaxEventLength)
	if err != nil {
		if IsIOError(err) {
			return err
		}
		return errors.Annotatef(ErrUnsupportedFormat, "%s: no format description event: %v", p.name, err)
	}
	if ev.Type != replication.FORMAT_DESCRIPTION_EVENT {
		return errors.Annotatef(ErrUnsupportedFormat, "%s: first event is %s", p.name, ev.TypeName())
	}
	view, err := ev.AsFormatDescription()
	if err != nil {
		return errors.Annotatef(ErrUnsupportedFormat, "%s: %v", p.name, err)
	}
	if view.Version != BinlogVersion {
		return errors.Annotatef(ErrUnsupportedFormat, "%s: expected binlog version %d, got %d",
			p.name, BinlogVersion, view.Version)
	}

	slave := ev.ServerID
	master := ev.ServerID
	fdeTime := int64(ev.Timestamp)
	evTime := fdeTime
	next := ev.End()
	if next+HeaderSize <= p.fileSize {
		h, err := DecodeHeader(p.src, next)
		if err != nil {
			return err
		}
		master = h.ServerID
		evTime = int64(h.Timestamp)
	}

	// Events follow either the FDE time, when this server started writing
	// the file, or the first event time, when the master wrote it. A zero
	// timestamp carries no information.
	minTime := int64(0)
	for _, t := range []int64{fdeTime, evTime} {
		if t != 0 && (minTime == 0 || t < minTime) {
			minTime = t
		}
	}
	if minTime != 0 {
		p.bounds.MinTimestamp = minTime - int64(p.cfg.TimestampFudge/time.Second)
	}
	p.bounds.EnforceServerID = p.cfg.EnforceServerID
	p.bounds.SlaveServerID = slave
	p.bounds.MasterServerID = master

	p.fde = view.Safe()
	p.hasReadFDE = true
	p.offset = next
	p.state = StateReady
	if next >= p.fileSize {
		p.state = StateEndOfLog
		p.eofBySize = true
	}
	p.log.Debug("read format description",
		zap.String("file", p.name),
		zap.String("server_version", p.fde.ServerVersion),
		zap.Uint32("slave_server_id", slave),
		zap.Uint32("master_server_id", master),
		zap.Int64("min_timestamp", p.bounds.MinTimestamp))
	return nil
}

// Refresh re-reads the file size. Logs being written grow between calls;
// a cursor that hit the end of the file becomes ready again once there is
// more to read.
func (p *Parser) Refresh() error {
	size, err := p.scanner.size()
	if err != nil {
		return err
	}
	p.fileSize = size
	if p.state == StateEndOfLog && p.eofBySize && p.offset < size {
		p.state = StateReady
		p.eofBySize = false
	}
	return nil
}

// FileSize returns the size seen by the last Refresh.
func (p *Parser) FileSize() int64 {
	return p.fileSize
}

// State returns the cursor state.
func (p *Parser) State() State {
	return p.state
}

// Err returns the error that moved the parser into StateError.
func (p *Parser) Err() error {
	return p.err
}

// Offset returns the offset Next will read from.
func (p *Parser) Offset() int64 {
	return p.offset
}

// Position returns the cursor as a file name and position.
func (p *Parser) Position() mysql.Position {
	return mysql.Position{Name: p.name, Pos: uint32(p.offset)}
}

// FormatDescription returns the log's format description.
func (p *Parser) FormatDescription() *FormatDescription {
	return p.fde
}

// Bounds returns a copy of the acceptance bounds in effect.
func (p *Parser) Bounds() Bounds {
	return p.bounds
}

// ServerIDs returns the slave and master server ids learned at open.
func (p *Parser) ServerIDs() (slave, master uint32) {
	return p.bounds.SlaveServerID, p.bounds.MasterServerID
}

// Config returns the parser configuration.
func (p *Parser) Config() Config {
	return p.cfg
}

// Rewind moves the cursor to off without scanning. The caller vouches for
// off being an event start.
func (p *Parser) Rewind(off int64) {
	p.offset = off
	p.state = StateReady
	p.err = nil
	p.eofBySize = false
}

func (p *Parser) fail(err error) error {
	p.state = StateError
	p.err = err
	return err
}

func (p *Parser) seekResult(ev *Event, err error) (*Event, error) {
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, p.fail(err)
	}
	p.Rewind(ev.Offset)
	return ev, nil
}

// SeekToOffset moves the cursor to the first plausible event at or after
// off and returns it. Next will return the same event again.
func (p *Parser) SeekToOffset(off int64) (*Event, error) {
	if err := p.Refresh(); err != nil {
		return nil, p.fail(err)
	}
	return p.seekResult(p.scanner.Nearest(off, Forward))
}

// SeekToTime moves the cursor to the event nearest t and returns it.
func (p *Parser) SeekToTime(t time.Time) (*Event, error) {
	if err := p.Refresh(); err != nil {
		return nil, p.fail(err)
	}
	return p.seekResult(p.scanner.NearestTime(t.Unix()))
}

// NearestEvent scans from off in dir without moving the cursor.
func (p *Parser) NearestEvent(off int64, dir Direction) (*Event, error) {
	if err := p.Refresh(); err != nil {
		return nil, err
	}
	return p.scanner.Nearest(off, dir)
}

// Next returns the event at the cursor and advances past it using the
// event's length. The writer's next position is never followed; it only
// marks the end of the log when it points at the event itself. After the
// last event Next returns ErrEndOfLog. A partially written event returns
// ErrTruncatedBody and leaves the cursor in place so the caller can Refresh
// and retry.
func (p *Parser) Next() (*Event, error) {
	switch p.state {
	case StateEndOfLog:
		return nil, ErrEndOfLog
	case StateError:
		return nil, p.err
	}
	if !p.hasReadFDE {
		if err := p.readFormatDescription(); err != nil {
			return nil, p.fail(err)
		}
	}

	ev, err := ReadEvent(p.src, p.offset, p.cfg.MaxEventLength)
	if err != nil {
		switch errors.Cause(err) {
		case ErrTruncatedBody:
			return nil, err
		case ErrShortRead:
			if p.offset >= p.fileSize {
				p.state = StateEndOfLog
				p.eofBySize = true
				return nil, ErrEndOfLog
			}
			return nil, errors.Annotatef(ErrTruncatedBody, "partial header at %d: %v", p.offset, err)
		}
		return nil, p.fail(err)
	}

	next := ev.End()
	switch {
	case next <= 0, next == p.offset:
		p.state = StateEndOfLog
	case int64(ev.NextPosition) == ev.Offset:
		p.state = StateEndOfLog
		p.offset = next
	case next >= p.fileSize:
		p.state = StateEndOfLog
		p.eofBySize = true
		p.offset = next
	default:
		p.offset = next
	}
	if p.state == StateEndOfLog {
		p.log.Debug("reached last event",
			zap.Int64("offset", ev.Offset),
			zap.Int64("next", next),
			zap.Uint32("next_position", ev.NextPosition),
			zap.Int64("file_size", p.fileSize))
	}
	return ev, nil
}
