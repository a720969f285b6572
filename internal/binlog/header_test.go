package binlog

import (
	"testing"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct {
	size int64
	err  error
}

func (f failingSource) ReadAt(p []byte, off int64) (int, error) { return 0, f.err }
func (f failingSource) Size() (int64, error)                  { return f.size, nil }

func TestHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		header Header
	}{
		{
			name:   "query",
			header: Header{Timestamp: baseTime, Type: replication.QUERY_EVENT, ServerID: 1, Length: 60, NextPosition: 79, Flags: 0x0008},
		},
		{
			name:   "minimum length",
			header: Header{Timestamp: 1262325600, Type: replication.STOP_EVENT, ServerID: 4294967295, Length: HeaderSize},
		},
		{
			name:   "large values",
			header: Header{Timestamp: 1700000000, Type: MaxTypeCode, ServerID: 0x01020304, Length: DefaultMaxEventLength - 1, NextPosition: 0xfffffff0, Flags: 0xffff},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := EncodeHeader(tt.header)
			require.Len(t, raw, HeaderSize)

			src := BytesSource(append([]byte{1, 2, 3}, raw...))
			got, err := DecodeHeader(src, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.header, got)
		})
	}
}

func TestHeaderLayout(t *testing.T) {
	raw := EncodeHeader(Header{
		Timestamp:    0x04030201,
		Type:         replication.EventType(5),
		ServerID:     0x09080706,
		Length:       0x0d0c0b0a,
		NextPosition: 0x11100f0e,
		Flags:        0x1312,
	})
	assert.Equal(t, []byte{
		0x01, 0x02, 0x03, 0x04,
		0x05,
		0x06, 0x07, 0x08, 0x09,
		0x0a, 0x0b, 0x0c, 0x0d,
		0x0e, 0x0f, 0x10, 0x11,
		0x12, 0x13,
	}, raw)
}

func TestDecodeHeaderErrors(t *testing.T) {
	src := BytesSource(make([]byte, 30))

	_, err := DecodeHeader(src, 20)
	assert.Equal(t, ErrShortRead, errors.Cause(err))

	_, err = DecodeHeader(src, 30)
	assert.Equal(t, ErrShortRead, errors.Cause(err))

	_, err = DecodeHeader(src, 100)
	assert.Equal(t, ErrShortRead, errors.Cause(err))

	_, err = DecodeHeader(src, -1)
	assert.Equal(t, ErrSeek, errors.Cause(err))
	assert.True(t, IsIOError(err))

	_, err = DecodeHeader(failingSource{size: 100, err: errors.New("disk on fire")}, 0)
	assert.Equal(t, ErrIO, errors.Cause(err))
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "QUERY_EVENT", TypeName(replication.QUERY_EVENT))
	assert.Equal(t, "FORMAT_DESCRIPTION_EVENT", TypeName(replication.FORMAT_DESCRIPTION_EVENT))
	assert.Equal(t, "HEARTBEAT_LOG_EVENT", TypeName(27))
	assert.Equal(t, "UNKNOWN_EVENT", TypeName(28))
	assert.Equal(t, "UNKNOWN_EVENT", TypeName(255))
}

func TestFlagNames(t *testing.T) {
	assert.Nil(t, FlagNames(0))
	assert.Equal(t, []string{"LOG_EVENT_BINLOG_IN_USE", "LOG_EVENT_SUPPRESS_USE"}, FlagNames(0x0009))
	assert.Equal(t, []string{"0x8000"}, FlagNames(0x8000))
	assert.Equal(t, []string{"OPTION_AUTO_IS_NULL", "0x100000"}, Flags2Names(0x00104000))
}
