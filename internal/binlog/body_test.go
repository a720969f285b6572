package binlog

import (
	"encoding/binary"
	"testing"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventOf(t replication.EventType, body []byte) *Event {
	return &Event{
		Header: Header{Timestamp: baseTime, Type: t, ServerID: masterID, Length: uint32(HeaderSize + len(body))},
		Offset: 120,
		Body:   body,
	}
}

func TestAsQuery(t *testing.T) {
	sv := []byte{byte(QLCTimeNames), 0, 0}
	ev := eventOf(replication.QUERY_EVENT, queryBody(42, "test", "SELECT 1", sv))

	q, err := ev.AsQuery()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), q.ThreadID)
	assert.Equal(t, uint16(3), q.StatusVarLen)
	assert.Equal(t, sv, q.StatusVars)
	assert.Equal(t, "test", string(q.DBName))
	assert.Equal(t, "SELECT 1", string(q.Statement))

	// Views alias the event body.
	ev.Body[len(ev.Body)-1] = '2'
	assert.Equal(t, "SELECT 2", string(q.Statement))
}

func TestAsQueryEmptyStatement(t *testing.T) {
	ev := eventOf(replication.QUERY_EVENT, queryBody(1, "", "", nil))
	q, err := ev.AsQuery()
	require.NoError(t, err)
	assert.Empty(t, q.DBName)
	assert.Empty(t, q.Statement)
}

func TestAsQueryMalformed(t *testing.T) {
	valid := queryBody(42, "test", "SELECT 1", nil)

	tests := []struct {
		name string
		body func() []byte
	}{
		{
			name: "shorter than fixed part",
			body: func() []byte { return valid[:queryFixedSize-1] },
		},
		{
			name: "status var length past body",
			body: func() []byte {
				b := append([]byte(nil), valid...)
				binary.LittleEndian.PutUint16(b[11:], uint16(len(b)))
				return b
			},
		},
		{
			name: "db name length past body",
			body: func() []byte {
				b := append([]byte(nil), valid...)
				b[8] = 200
				return b
			},
		},
		{
			name: "db name NUL missing",
			body: func() []byte {
				b := append([]byte(nil), valid[:queryFixedSize]...)
				return append(b, "test"...)
			},
		},
		{
			name: "status vars and db name together overrun",
			body: func() []byte {
				b := append([]byte(nil), valid...)
				binary.LittleEndian.PutUint16(b[11:], 10)
				return b
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eventOf(replication.QUERY_EVENT, tt.body()).AsQuery()
			assert.Equal(t, ErrMalformedBody, errors.Cause(err))
			assert.True(t, IsBodyError(err))
		})
	}
}

func TestWrongType(t *testing.T) {
	ev := eventOf(replication.XID_EVENT, xidBody(1))
	_, err := ev.AsQuery()
	assert.Equal(t, ErrWrongType, errors.Cause(err))
	_, err = ev.AsRotate()
	assert.Equal(t, ErrWrongType, errors.Cause(err))
	_, err = ev.AsFormatDescription()
	assert.Equal(t, ErrWrongType, errors.Cause(err))
}

func TestFixedBodies(t *testing.T) {
	x, err := eventOf(replication.XID_EVENT, xidBody(77)).AsXid()
	require.NoError(t, err)
	assert.Equal(t, uint64(77), x.ID)

	intvar := append([]byte{IntVarInsertID}, binary.LittleEndian.AppendUint64(nil, 12345)...)
	iv, err := eventOf(replication.INTVAR_EVENT, intvar).AsIntVar()
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), iv.Value)
	assert.Equal(t, "INSERT_ID_EVENT", iv.TypeName())

	seeds := binary.LittleEndian.AppendUint64(binary.LittleEndian.AppendUint64(nil, 11), 22)
	r, err := eventOf(replication.RAND_EVENT, seeds).AsRand()
	require.NoError(t, err)
	assert.Equal(t, Rand{Seed1: 11, Seed2: 22}, r)

	for _, ev := range []*Event{
		eventOf(replication.XID_EVENT, make([]byte, 7)),
		eventOf(replication.INTVAR_EVENT, make([]byte, 8)),
		eventOf(replication.RAND_EVENT, make([]byte, 15)),
		eventOf(replication.ROTATE_EVENT, make([]byte, 7)),
		eventOf(replication.FORMAT_DESCRIPTION_EVENT, make([]byte, 56)),
	} {
		_, err := ev.Payload()
		assert.Equal(t, ErrMalformedBody, errors.Cause(err), ev.TypeName())
	}
}

func TestAsRotate(t *testing.T) {
	ev := eventOf(replication.ROTATE_EVENT, rotateBody(4, "mysql-bin.000002"))
	r, err := ev.AsRotate()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), r.NextPosition)
	assert.Equal(t, "mysql-bin.000002", string(r.FileName))

	safe := r.Safe()
	assert.Equal(t, mysql.Position{Name: "mysql-bin.000002", Pos: 4}, safe.Position())
}

func TestAsFormatDescription(t *testing.T) {
	ev := eventOf(replication.FORMAT_DESCRIPTION_EVENT, fdeBody(baseTime, BinlogVersion))
	f, err := ev.AsFormatDescription()
	require.NoError(t, err)
	assert.Equal(t, uint16(BinlogVersion), f.Version)
	assert.Equal(t, "5.1.73-log", string(f.ServerVersion))
	assert.Equal(t, baseTime, f.CreateTimestamp)
	assert.Equal(t, uint8(HeaderSize), f.HeaderLength)
	assert.Equal(t, postHeaderLengths, f.PostHeaderLengths)
}

func TestPayloadOwnsData(t *testing.T) {
	ev := eventOf(replication.QUERY_EVENT, queryBody(42, "test", "SELECT 1", []byte{byte(QLCTimeNames), 0, 0}))
	p, err := ev.Payload()
	require.NoError(t, err)
	q, ok := p.(*Query)
	require.True(t, ok)

	for i := range ev.Body {
		ev.Body[i] = 'x'
	}
	ev.Body = nil

	assert.Equal(t, uint32(42), q.ThreadID)
	assert.Equal(t, "test", q.DBName)
	assert.Equal(t, "SELECT 1", q.Statement)
	assert.Equal(t, []byte{byte(QLCTimeNames), 0, 0}, q.StatusVars)

	opaque, err := eventOf(replication.TABLE_MAP_EVENT, []byte{1, 2, 3}).Payload()
	require.NoError(t, err)
	assert.Equal(t, &Opaque{Type: replication.TABLE_MAP_EVENT, Data: []byte{1, 2, 3}}, opaque)
}

func TestDecodeBody(t *testing.T) {
	b := newLogBuilder()
	off := b.xid(baseTime, 5)
	src := b.source()

	ev, err := ReadEvent(src, off, 0)
	require.NoError(t, err)
	assert.Equal(t, off, ev.Offset)
	assert.Equal(t, off+27, ev.End())
	assert.Equal(t, []byte(src[off:]), ev.Raw())

	h := ev.Header
	h.Length = 10
	_, err = DecodeBody(src, off, h, 0)
	assert.Equal(t, ErrInvalidLength, errors.Cause(err))

	h.Length = 100
	_, err = DecodeBody(src, off, h, 0)
	assert.Equal(t, ErrTruncatedBody, errors.Cause(err))

	h.Length = DefaultMaxEventLength
	_, err = DecodeBody(src, off, h, 0)
	assert.Equal(t, ErrAllocation, errors.Cause(err))

	h.Length = HeaderSize
	body, err := DecodeBody(src, off, h, 0)
	require.NoError(t, err)
	assert.Empty(t, body)
}
