package binlog

import (
	"bytes"
	"encoding/binary"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pingcap/errors"
)

// BinlogVersion is the only format version this package reads.
const BinlogVersion = 4

// Fixed sub-header sizes.
const (
	formatDescriptionFixedSize = 2 + serverVersionSize + 4 + 1
	serverVersionSize          = 50
	queryFixedSize             = 4 + 4 + 1 + 2 + 2
	rotateFixedSize            = 8
	intVarSize                 = 1 + 8
	randSize                   = 8 + 8
	xidSize                    = 8
)

// FormatDescriptionView aliases the body of a FORMAT_DESCRIPTION_EVENT.
type FormatDescriptionView struct {
	Version         uint16
	ServerVersion   []byte
	CreateTimestamp uint32
	HeaderLength    uint8
	// PostHeaderLengths lists the post-header size of each event type.
	PostHeaderLengths []byte
}

// QueryView aliases the body of a QUERY_EVENT.
type QueryView struct {
	ThreadID     uint32
	QueryTime    uint32
	DBNameLen    uint8
	ErrorCode    uint16
	StatusVarLen uint16
	StatusVars   []byte
	DBName       []byte
	// Statement is not NUL terminated on the wire.
	Statement []byte
}

// RotateView aliases the body of a ROTATE_EVENT.
type RotateView struct {
	NextPosition uint64
	FileName     []byte
}

// IntVar is the body of an INTVAR_EVENT.
type IntVar struct {
	Type  uint8
	Value uint64
}

// TypeName names the intvar subtype.
func (v IntVar) TypeName() string {
	return IntVarTypeName(v.Type)
}

// Rand is the body of a RAND_EVENT.
type Rand struct {
	Seed1 uint64
	Seed2 uint64
}

// Xid is the body of an XID_EVENT.
type Xid struct {
	ID uint64
}

func (e *Event) expect(t replication.EventType) error {
	if e.Type != t {
		return errors.Annotatef(ErrWrongType, "%s at %d is not a %s", e.TypeName(), e.Offset, TypeName(t))
	}
	return nil
}

func (e *Event) malformed(format string, args ...interface{}) error {
	args = append([]interface{}{e.TypeName(), e.Offset}, args...)
	return errors.Annotatef(ErrMalformedBody, "%s at %d: "+format, args...)
}

// AsFormatDescription views the event as a format description.
func (e *Event) AsFormatDescription() (FormatDescriptionView, error) {
	if err := e.expect(replication.FORMAT_DESCRIPTION_EVENT); err != nil {
		return FormatDescriptionView{}, err
	}
	b := e.Body
	if len(b) < formatDescriptionFixedSize {
		return FormatDescriptionView{}, e.malformed("body is %d bytes, need %d", len(b), formatDescriptionFixedSize)
	}
	version := b[2 : 2+serverVersionSize]
	if i := bytes.IndexByte(version, 0); i >= 0 {
		version = version[:i]
	}
	pos := 2 + serverVersionSize
	return FormatDescriptionView{
		Version:           binary.LittleEndian.Uint16(b),
		ServerVersion:     version,
		CreateTimestamp:   binary.LittleEndian.Uint32(b[pos:]),
		HeaderLength:      b[pos+4],
		PostHeaderLengths: b[formatDescriptionFixedSize:],
	}, nil
}

// AsQuery views the event as a query. Every length field is checked
// against what remains of the body before it is used.
func (e *Event) AsQuery() (QueryView, error) {
	if err := e.expect(replication.QUERY_EVENT); err != nil {
		return QueryView{}, err
	}
	b := e.Body
	if len(b) < queryFixedSize {
		return QueryView{}, e.malformed("body is %d bytes, need %d", len(b), queryFixedSize)
	}
	q := QueryView{
		ThreadID:     binary.LittleEndian.Uint32(b[0:]),
		QueryTime:    binary.LittleEndian.Uint32(b[4:]),
		DBNameLen:    b[8],
		ErrorCode:    binary.LittleEndian.Uint16(b[9:]),
		StatusVarLen: binary.LittleEndian.Uint16(b[11:]),
	}
	rest := b[queryFixedSize:]
	if int(q.StatusVarLen) > len(rest) {
		return QueryView{}, e.malformed("status vars need %d bytes, %d left", q.StatusVarLen, len(rest))
	}
	q.StatusVars = rest[:q.StatusVarLen]
	rest = rest[q.StatusVarLen:]
	dbLen := int(q.DBNameLen) + 1
	if dbLen > len(rest) {
		return QueryView{}, e.malformed("db name needs %d bytes, %d left", dbLen, len(rest))
	}
	q.DBName = rest[:q.DBNameLen]
	q.Statement = rest[dbLen:]
	return q, nil
}

// AsRotate views the event as a rotate.
func (e *Event) AsRotate() (RotateView, error) {
	if err := e.expect(replication.ROTATE_EVENT); err != nil {
		return RotateView{}, err
	}
	if len(e.Body) < rotateFixedSize {
		return RotateView{}, e.malformed("body is %d bytes, need %d", len(e.Body), rotateFixedSize)
	}
	return RotateView{
		NextPosition: binary.LittleEndian.Uint64(e.Body),
		FileName:     e.Body[rotateFixedSize:],
	}, nil
}

// AsIntVar decodes an INTVAR_EVENT.
func (e *Event) AsIntVar() (IntVar, error) {
	if err := e.expect(replication.INTVAR_EVENT); err != nil {
		return IntVar{}, err
	}
	if len(e.Body) < intVarSize {
		return IntVar{}, e.malformed("body is %d bytes, need %d", len(e.Body), intVarSize)
	}
	return IntVar{Type: e.Body[0], Value: binary.LittleEndian.Uint64(e.Body[1:])}, nil
}

// AsRand decodes a RAND_EVENT.
func (e *Event) AsRand() (Rand, error) {
	if err := e.expect(replication.RAND_EVENT); err != nil {
		return Rand{}, err
	}
	if len(e.Body) < randSize {
		return Rand{}, e.malformed("body is %d bytes, need %d", len(e.Body), randSize)
	}
	return Rand{
		Seed1: binary.LittleEndian.Uint64(e.Body),
		Seed2: binary.LittleEndian.Uint64(e.Body[8:]),
	}, nil
}

// AsXid decodes an XID_EVENT.
func (e *Event) AsXid() (Xid, error) {
	if err := e.expect(replication.XID_EVENT); err != nil {
		return Xid{}, err
	}
	if len(e.Body) < xidSize {
		return Xid{}, e.malformed("body is %d bytes, need %d", len(e.Body), xidSize)
	}
	return Xid{ID: binary.LittleEndian.Uint64(e.Body)}, nil
}
