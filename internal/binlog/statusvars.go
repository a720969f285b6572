package binlog

import (
	"encoding/binary"
	"fmt"

	"github.com/pingcap/errors"
)

// StatusVarCode tags an entry in a query event's status variable block.
type StatusVarCode uint8

// Status variable codes.
const (
	QFlags2            StatusVarCode = 0
	QSQLMode           StatusVarCode = 1
	QCatalog           StatusVarCode = 2
	QAutoIncrement     StatusVarCode = 3
	QCharset           StatusVarCode = 4
	QTimeZone          StatusVarCode = 5
	QCatalogNZ         StatusVarCode = 6
	QLCTimeNames       StatusVarCode = 7
	QCharsetDatabase   StatusVarCode = 8
	QTableMapForUpdate StatusVarCode = 9
	QMasterDataWritten StatusVarCode = 10
	QInvoker           StatusVarCode = 11
	QUpdatedDBNames    StatusVarCode = 12
	QMicroseconds      StatusVarCode = 13
)

var statusVarNames = [...]string{
	"Q_FLAGS2",
	"Q_SQL_MODE",
	"Q_CATALOG",
	"Q_AUTO_INCREMENT",
	"Q_CHARSET",
	"Q_TIME_ZONE",
	"Q_CATALOG_NZ",
	"Q_LC_TIME_NAMES",
	"Q_CHARSET_DATABASE",
	"Q_TABLE_MAP_FOR_UPDATE",
	"Q_MASTER_DATA_WRITTEN",
	"Q_INVOKER",
	"Q_UPDATED_DB_NAMES",
	"Q_MICROSECONDS",
}

func (c StatusVarCode) String() string {
	if int(c) < len(statusVarNames) {
		return statusVarNames[c]
	}
	return fmt.Sprintf("Q_UNKNOWN(%d)", uint8(c))
}

// CatalogLayout selects how Q_CATALOG entries are framed. Servers have
// written the catalog both as length + string + NUL, where the length byte
// does not count the NUL, and as plain length + string.
type CatalogLayout int

const (
	// CatalogAuto tries CatalogNul and falls back to CatalogPlain when the
	// block does not decode cleanly.
	CatalogAuto CatalogLayout = iota
	// CatalogNul expects a trailing NUL not counted by the length byte.
	CatalogNul
	// CatalogPlain expects exactly length bytes.
	CatalogPlain
)

// ParseCatalogLayout maps "auto", "nul" and "plain" to a layout.
func ParseCatalogLayout(s string) (CatalogLayout, error) {
	switch s {
	case "", "auto":
		return CatalogAuto, nil
	case "nul":
		return CatalogNul, nil
	case "plain":
		return CatalogPlain, nil
	}
	return CatalogAuto, errors.Errorf("unknown catalog layout %q", s)
}

func (l CatalogLayout) String() string {
	switch l {
	case CatalogNul:
		return "nul"
	case CatalogPlain:
		return "plain"
	}
	return "auto"
}

// overMaxDBs marks a Q_UPDATED_DB_NAMES entry that lists no names.
const overMaxDBs = 254

// StatusVar is one decoded status variable. Value holds fixed-width
// integers, Values the small integer tuples and Strings the textual payloads.
type StatusVar struct {
	Code    StatusVarCode
	Value   uint64
	Values  []uint16
	Strings []string
}

// Name returns the variable's name.
func (v StatusVar) Name() string {
	return v.Code.String()
}

type statusVarReader struct {
	block []byte
	pos   int
}

func (r *statusVarReader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.block)-r.pos {
		return nil, errors.Annotatef(ErrMalformedBody, "status var needs %d bytes at %d, block is %d", n, r.pos, len(r.block))
	}
	b := r.block[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *statusVarReader) lenString() (string, error) {
	n, err := r.take(1)
	if err != nil {
		return "", err
	}
	s, err := r.take(int(n[0]))
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func (r *statusVarReader) uint16s(n int) ([]uint16, error) {
	b, err := r.take(2 * n)
	if err != nil {
		return nil, err
	}
	vals := make([]uint16, n)
	for i := range vals {
		vals[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return vals, nil
}

// DecodeStatusVars walks a status variable block. Entries whose payload
// would overrun the block, and codes it does not know, are rejected with
// ErrMalformedBody.
func DecodeStatusVars(block []byte, layout CatalogLayout) ([]StatusVar, error) {
	if layout != CatalogAuto {
		return decodeStatusVars(block, layout)
	}
	vars, err := decodeStatusVars(block, CatalogNul)
	if err == nil {
		return vars, nil
	}
	if plain, perr := decodeStatusVars(block, CatalogPlain); perr == nil {
		return plain, nil
	}
	return nil, err
}

func decodeStatusVars(block []byte, layout CatalogLayout) ([]StatusVar, error) {
	r := &statusVarReader{block: block}
	var vars []StatusVar
	for r.pos < len(block) {
		start := r.pos
		code := StatusVarCode(block[r.pos])
		r.pos++
		v := StatusVar{Code: code}
		var err error
		switch code {
		case QFlags2, QMasterDataWritten:
			var b []byte
			if b, err = r.take(4); err == nil {
				v.Value = uint64(binary.LittleEndian.Uint32(b))
			}
		case QSQLMode, QTableMapForUpdate:
			var b []byte
			if b, err = r.take(8); err == nil {
				v.Value = binary.LittleEndian.Uint64(b)
			}
		case QCatalog:
			var s string
			if s, err = r.lenString(); err == nil {
				v.Strings = []string{s}
				if layout == CatalogNul {
					var nul []byte
					if nul, err = r.take(1); err == nil && nul[0] != 0 {
						err = errors.Annotatef(ErrMalformedBody, "catalog at %d is not NUL terminated", start)
					}
				}
			}
		case QAutoIncrement:
			v.Values, err = r.uint16s(2)
		case QCharset:
			v.Values, err = r.uint16s(3)
		case QTimeZone, QCatalogNZ:
			var s string
			if s, err = r.lenString(); err == nil {
				v.Strings = []string{s}
			}
		case QLCTimeNames, QCharsetDatabase:
			var vals []uint16
			if vals, err = r.uint16s(1); err == nil {
				v.Value = uint64(vals[0])
			}
		case QInvoker:
			var user, host string
			if user, err = r.lenString(); err == nil {
				if host, err = r.lenString(); err == nil {
					v.Strings = []string{user, host}
				}
			}
		case QUpdatedDBNames:
			v.Strings, err = r.dbNames()
		case QMicroseconds:
			var b []byte
			if b, err = r.take(3); err == nil {
				v.Value = uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16
			}
		default:
			err = errors.Annotatef(ErrMalformedBody, "unknown status var code %d at %d", uint8(code), start)
		}
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func (r *statusVarReader) dbNames() ([]string, error) {
	n, err := r.take(1)
	if err != nil {
		return nil, err
	}
	if n[0] == overMaxDBs {
		return nil, nil
	}
	names := make([]string, 0, n[0])
	for i := 0; i < int(n[0]); i++ {
		end := r.pos
		for end < len(r.block) && r.block[end] != 0 {
			end++
		}
		if end >= len(r.block) {
			return nil, errors.Annotatef(ErrMalformedBody, "updated db name at %d is not NUL terminated", r.pos)
		}
		names = append(names, string(r.block[r.pos:end]))
		r.pos = end + 1
	}
	return names, nil
}
