package binlog

import (
	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
)

// The types below own their data and stay usable after the event they were
// decoded from is dropped.

// FormatDescription is an owned copy of a FORMAT_DESCRIPTION_EVENT body.
type FormatDescription struct {
	Version           uint16
	ServerVersion     string
	CreateTimestamp   uint32
	HeaderLength      uint8
	PostHeaderLengths []byte
}

// Query is an owned copy of a QUERY_EVENT body.
type Query struct {
	ThreadID   uint32
	QueryTime  uint32
	ErrorCode  uint16
	DBName     string
	Statement  string
	StatusVars []byte
}

// DecodeStatusVars decodes the query's status variable block.
func (q *Query) DecodeStatusVars(layout CatalogLayout) ([]StatusVar, error) {
	return DecodeStatusVars(q.StatusVars, layout)
}

// Rotate is an owned copy of a ROTATE_EVENT body.
type Rotate struct {
	NextPosition uint64
	FileName     string
}

// Position returns where the next file starts.
func (r *Rotate) Position() mysql.Position {
	return mysql.Position{Name: r.FileName, Pos: uint32(r.NextPosition)}
}

// Opaque is an owned copy of a body this package does not interpret.
type Opaque struct {
	Type replication.EventType
	Data []byte
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}

// Safe copies the view.
func (v FormatDescriptionView) Safe() *FormatDescription {
	return &FormatDescription{
		Version:           v.Version,
		ServerVersion:     string(v.ServerVersion),
		CreateTimestamp:   v.CreateTimestamp,
		HeaderLength:      v.HeaderLength,
		PostHeaderLengths: cloneBytes(v.PostHeaderLengths),
	}
}

// Safe copies the view.
func (v QueryView) Safe() *Query {
	return &Query{
		ThreadID:   v.ThreadID,
		QueryTime:  v.QueryTime,
		ErrorCode:  v.ErrorCode,
		DBName:     string(v.DBName),
		Statement:  string(v.Statement),
		StatusVars: cloneBytes(v.StatusVars),
	}
}

// Safe copies the view.
func (v RotateView) Safe() *Rotate {
	return &Rotate{NextPosition: v.NextPosition, FileName: string(v.FileName)}
}

// Payload decodes the body into an owned value: *FormatDescription, *Query,
// *Rotate, IntVar, Rand, Xid, or *Opaque for every other type.
func (e *Event) Payload() (interface{}, error) {
	switch e.Type {
	case replication.FORMAT_DESCRIPTION_EVENT:
		v, err := e.AsFormatDescription()
		if err != nil {
			return nil, err
		}
		return v.Safe(), nil
	case replication.QUERY_EVENT:
		v, err := e.AsQuery()
		if err != nil {
			return nil, err
		}
		return v.Safe(), nil
	case replication.ROTATE_EVENT:
		v, err := e.AsRotate()
		if err != nil {
			return nil, err
		}
		return v.Safe(), nil
	case replication.INTVAR_EVENT:
		return e.AsIntVar()
	case replication.RAND_EVENT:
		return e.AsRand()
	case replication.XID_EVENT:
		return e.AsXid()
	}
	return &Opaque{Type: e.Type, Data: cloneBytes(e.Body)}, nil
}
