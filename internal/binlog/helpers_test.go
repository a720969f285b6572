package binlog

import (
	"encoding/binary"
	"time"

	"github.com/go-mysql-org/go-mysql/replication"
)

const (
	slaveID  = 7
	masterID = 9
	// baseTime has a zero low byte; stepping by 256 keeps it zero so
	// misaligned probes never read a plausible timestamp.
	baseTime = uint32(1300000000)
)

var testNow = time.Unix(int64(baseTime)+100000, 0)

func testClock() time.Time { return testNow }

// mysql 5.1 post-header lengths.
var postHeaderLengths = []byte{56, 11, 0, 8, 0, 18, 0, 4, 4, 4, 4, 18, 0, 0, 84, 0, 4, 26, 8, 0, 0, 0, 8, 8, 8, 2, 0}

type logBuilder struct {
	buf     []byte
	offsets []int64
}

func newLogBuilder() *logBuilder {
	return &logBuilder{buf: []byte{0xfe, 'b', 'i', 'n'}}
}

func (b *logBuilder) event(h Header, body []byte) int64 {
	off := int64(len(b.buf))
	h.Length = uint32(HeaderSize + len(body))
	if h.NextPosition == 0 {
		h.NextPosition = uint32(off) + h.Length
	}
	b.buf = AppendHeader(b.buf, h)
	b.buf = append(b.buf, body...)
	b.offsets = append(b.offsets, off)
	return off
}

func (b *logBuilder) fde(ts uint32, version uint16) int64 {
	return b.event(Header{Timestamp: ts, Type: replication.FORMAT_DESCRIPTION_EVENT, ServerID: slaveID}, fdeBody(ts, version))
}

func (b *logBuilder) xid(ts uint32, id uint64) int64 {
	return b.event(Header{Timestamp: ts, Type: replication.XID_EVENT, ServerID: masterID}, xidBody(id))
}

func (b *logBuilder) query(ts uint32, threadID uint32, db, stmt string) int64 {
	return b.event(Header{Timestamp: ts, Type: replication.QUERY_EVENT, ServerID: masterID}, queryBody(threadID, db, stmt, nil))
}

func (b *logBuilder) source() BytesSource {
	return BytesSource(b.buf)
}

func fdeBody(ts uint32, version uint16) []byte {
	body := binary.LittleEndian.AppendUint16(nil, version)
	sv := make([]byte, serverVersionSize)
	copy(sv, "5.1.73-log")
	body = append(body, sv...)
	body = binary.LittleEndian.AppendUint32(body, ts)
	body = append(body, HeaderSize)
	return append(body, postHeaderLengths...)
}

func queryBody(threadID uint32, db, stmt string, statusVars []byte) []byte {
	body := binary.LittleEndian.AppendUint32(nil, threadID)
	body = binary.LittleEndian.AppendUint32(body, 0)
	body = append(body, byte(len(db)))
	body = binary.LittleEndian.AppendUint16(body, 0)
	body = binary.LittleEndian.AppendUint16(body, uint16(len(statusVars)))
	body = append(body, statusVars...)
	body = append(body, db...)
	body = append(body, 0)
	return append(body, stmt...)
}

func xidBody(id uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, id)
}

func rotateBody(pos uint64, name string) []byte {
	return append(binary.LittleEndian.AppendUint64(nil, pos), name...)
}

func testBounds() *Bounds {
	return &Bounds{
		MinTimestamp: DefaultMinTimestamp,
		Fudge:        DefaultTimestampFudge,
		Now:          testClock,
	}
}

// standardLog is an FDE followed by n events alternating query and xid,
// one time step apart.
func standardLog(n int) (*logBuilder, []uint32) {
	b := newLogBuilder()
	b.fde(baseTime, BinlogVersion)
	stamps := make([]uint32, n)
	for i := 0; i < n; i++ {
		ts := baseTime + uint32(i+1)*256
		stamps[i] = ts
		if i%2 == 0 {
			b.query(ts, uint32(100+i), "test", "INSERT INTO t VALUES (1)")
		} else {
			b.xid(ts, uint64(1000+i))
		}
	}
	return b, stamps
}
