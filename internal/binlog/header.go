package binlog

import (
	"encoding/binary"
	"time"

	"github.com/go-mysql-org/go-mysql/replication"
)

// HeaderSize is the fixed length of every v4 event header.
const HeaderSize = 19

// MagicSize is the length of the file preamble preceding the first event.
const MagicSize = 4

// Header is the fixed prefix of an event.
type Header struct {
	Timestamp    uint32
	Type         replication.EventType
	ServerID     uint32
	Length       uint32
	NextPosition uint32
	Flags        uint16
}

// Time returns the header timestamp.
func (h Header) Time() time.Time {
	return time.Unix(int64(h.Timestamp), 0)
}

// BodyLength returns the declared body size. It is only meaningful when
// Length >= HeaderSize.
func (h Header) BodyLength() uint32 {
	if h.Length < HeaderSize {
		return 0
	}
	return h.Length - HeaderSize
}

// DecodeHeader reads the header at off.
func DecodeHeader(src Source, off int64) (Header, error) {
	var buf [HeaderSize]byte
	if err := readFull(src, buf[:], off, ErrShortRead); err != nil {
		return Header{}, err
	}
	return ParseHeader(buf[:]), nil
}

// ParseHeader decodes the first HeaderSize bytes of b. b must be at least
// HeaderSize long.
func ParseHeader(b []byte) Header {
	_ = b[HeaderSize-1]
	return Header{
		Timestamp:    binary.LittleEndian.Uint32(b[0:]),
		Type:         replication.EventType(b[4]),
		ServerID:     binary.LittleEndian.Uint32(b[5:]),
		Length:       binary.LittleEndian.Uint32(b[9:]),
		NextPosition: binary.LittleEndian.Uint32(b[13:]),
		Flags:        binary.LittleEndian.Uint16(b[17:]),
	}
}

// AppendHeader appends the wire encoding of h to b.
func AppendHeader(b []byte, h Header) []byte {
	b = binary.LittleEndian.AppendUint32(b, h.Timestamp)
	b = append(b, byte(h.Type))
	b = binary.LittleEndian.AppendUint32(b, h.ServerID)
	b = binary.LittleEndian.AppendUint32(b, h.Length)
	b = binary.LittleEndian.AppendUint32(b, h.NextPosition)
	b = binary.LittleEndian.AppendUint16(b, h.Flags)
	return b
}

// EncodeHeader returns the wire encoding of h.
func EncodeHeader(h Header) []byte {
	return AppendHeader(make([]byte, 0, HeaderSize), h)
}
