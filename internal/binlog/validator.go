package binlog

import (
	"time"
)

// Bounds decides whether a header plausibly starts a real event. It stands
// in for a checksum, which v4 logs do not carry.
type Bounds struct {
	MinTimestamp    int64
	Fudge           time.Duration
	MaxEventLength  uint32
	EnforceServerID bool
	SlaveServerID   uint32
	MasterServerID  uint32
	// Now supplies the current time; the ceiling is Now()+Fudge.
	Now func() time.Time
}

// MaxTimestamp returns the current timestamp ceiling.
func (b *Bounds) MaxTimestamp() int64 {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return now().Add(b.Fudge).Unix()
}

// LooksValid reports whether h passes every plausibility condition.
func (b *Bounds) LooksValid(h Header) bool {
	if h.Type < MinTypeCode || h.Type > MaxTypeCode {
		return false
	}
	maxLen := b.MaxEventLength
	if maxLen == 0 {
		maxLen = DefaultMaxEventLength
	}
	if h.Length < HeaderSize || h.Length >= maxLen {
		return false
	}
	ts := int64(h.Timestamp)
	if ts < b.MinTimestamp || ts > b.MaxTimestamp() {
		return false
	}
	if b.EnforceServerID && h.ServerID != b.SlaveServerID && h.ServerID != b.MasterServerID {
		return false
	}
	return true
}
