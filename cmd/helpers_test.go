package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/stretchr/testify/require"

	"github.com/minuteman3/binlog-seek/internal/binlog"
)

const (
	slaveID  = 7
	masterID = 9
	// Low byte zero so misaligned probes never see a plausible timestamp.
	baseTime = uint32(1300000000)
)

var postHeaderLengths = []byte{56, 11, 0, 8, 0, 18, 0, 4, 4, 4, 4, 18, 0, 0, 84, 0, 4, 26, 8, 0, 0, 0, 8, 8, 8, 2, 0}

type testLog struct {
	buf     []byte
	offsets []int64
}

func newTestLog(version uint16) *testLog {
	l := &testLog{buf: []byte{0xfe, 'b', 'i', 'n'}}
	body := binary.LittleEndian.AppendUint16(nil, version)
	sv := make([]byte, 50)
	copy(sv, "5.1.73-log")
	body = append(body, sv...)
	body = binary.LittleEndian.AppendUint32(body, baseTime)
	body = append(body, binlog.HeaderSize)
	body = append(body, postHeaderLengths...)
	l.event(baseTime, replication.FORMAT_DESCRIPTION_EVENT, slaveID, body)
	return l
}

func (l *testLog) event(ts uint32, t replication.EventType, serverID uint32, body []byte) int64 {
	off := int64(len(l.buf))
	h := binlog.Header{
		Timestamp: ts,
		Type:      t,
		ServerID:  serverID,
		Length:    uint32(binlog.HeaderSize + len(body)),
	}
	h.NextPosition = uint32(off) + h.Length
	l.buf = binlog.AppendHeader(l.buf, h)
	l.buf = append(l.buf, body...)
	l.offsets = append(l.offsets, off)
	return off
}

func (l *testLog) query(ts uint32, db, stmt string) int64 {
	body := binary.LittleEndian.AppendUint32(nil, 42)
	body = binary.LittleEndian.AppendUint32(body, 0)
	body = append(body, byte(len(db)))
	body = binary.LittleEndian.AppendUint16(body, 0)
	body = binary.LittleEndian.AppendUint16(body, 0)
	body = append(body, db...)
	body = append(body, 0)
	body = append(body, stmt...)
	return l.event(ts, replication.QUERY_EVENT, masterID, body)
}

func (l *testLog) xid(ts uint32, id uint64) int64 {
	return l.event(ts, replication.XID_EVENT, masterID, binary.LittleEndian.AppendUint64(nil, id))
}

func (l *testLog) write(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, l.buf, 0o644))
	return path
}

// transactionLog holds two transactions, one per database.
func transactionLog() *testLog {
	l := newTestLog(binlog.BinlogVersion)
	l.query(baseTime+256, "test", "BEGIN")
	l.query(baseTime+512, "test", "INSERT INTO t VALUES (1)")
	l.xid(baseTime+768, 1001)
	l.query(baseTime+1024, "other", "BEGIN")
	l.query(baseTime+1280, "other", "DELETE FROM u")
	l.xid(baseTime+1536, 1002)
	return l
}

// execute runs the command line with an empty config file and returns
// stdout and the exit code.
func execute(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.ini")}, args...))
	err := cmd.Execute()
	if err != nil {
		t.Logf("error: %v\nstderr: %s", err, stderr.String())
	}
	return stdout.String(), exitCode(err)
}
