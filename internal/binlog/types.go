package binlog

import (
	"fmt"

	"github.com/go-mysql-org/go-mysql/replication"
)

// Type codes accepted as real event starts lie in [MinTypeCode, MaxTypeCode].
const (
	MinTypeCode = replication.EventType(1)
	MaxTypeCode = replication.EventType(26)
)

var eventTypeNames = [...]string{
	"UNKNOWN_EVENT",
	"START_EVENT_V3",
	"QUERY_EVENT",
	"STOP_EVENT",
	"ROTATE_EVENT",
	"INTVAR_EVENT",
	"LOAD_EVENT",
	"SLAVE_EVENT",
	"CREATE_FILE_EVENT",
	"APPEND_BLOCK_EVENT",
	"EXEC_LOAD_EVENT",
	"DELETE_FILE_EVENT",
	"NEW_LOAD_EVENT",
	"RAND_EVENT",
	"USER_VAR_EVENT",
	"FORMAT_DESCRIPTION_EVENT",
	"XID_EVENT",
	"BEGIN_LOAD_QUERY_EVENT",
	"EXECUTE_LOAD_QUERY_EVENT",
	"TABLE_MAP_EVENT",
	"PRE_GA_WRITE_ROWS_EVENT",
	"PRE_GA_UPDATE_ROWS_EVENT",
	"PRE_GA_DELETE_ROWS_EVENT",
	"WRITE_ROWS_EVENT",
	"UPDATE_ROWS_EVENT",
	"DELETE_ROWS_EVENT",
	"INCIDENT_EVENT",
	"HEARTBEAT_LOG_EVENT",
}

// TypeName returns the server's name for an event type code.
// Codes outside the known table map to UNKNOWN_EVENT.
func TypeName(t replication.EventType) string {
	if int(t) >= len(eventTypeNames) {
		return eventTypeNames[0]
	}
	return eventTypeNames[t]
}

// Header flag bits, lowest bit first.
var headerFlagNames = [16]string{
	"LOG_EVENT_BINLOG_IN_USE",
	"LOG_EVENT_FORCED_ROTATE",
	"LOG_EVENT_THREAD_SPECIFIC",
	"LOG_EVENT_SUPPRESS_USE",
	"LOG_EVENT_UPDATE_TABLE_MAP_VERSION",
	"LOG_EVENT_ARTIFICIAL",
	"LOG_EVENT_RELAY_LOG",
}

// Q_FLAGS2 bits with known names.
var flags2Names = map[uint32]string{
	0x00004000: "OPTION_AUTO_IS_NULL",
	0x00080000: "OPTION_NOT_AUTOCOMMIT",
	0x04000000: "OPTION_NO_FOREIGN_KEY_CHECKS",
	0x08000000: "OPTION_RELAXED_UNIQUE_CHECKS",
}

// FlagNames returns the names of the set header flags, lowest bit first.
// Set bits without a name are reported in hex.
func FlagNames(flags uint16) []string {
	var names []string
	for bit := 0; bit < 16; bit++ {
		if flags&(1<<bit) == 0 {
			continue
		}
		name := headerFlagNames[bit]
		if name == "" {
			name = hexBit(uint32(1) << bit)
		}
		names = append(names, name)
	}
	return names
}

// Flags2Names returns the names of the set Q_FLAGS2 bits, lowest bit first.
func Flags2Names(flags uint32) []string {
	var names []string
	for bit := 0; bit < 32; bit++ {
		mask := uint32(1) << bit
		if flags&mask == 0 {
			continue
		}
		name, ok := flags2Names[mask]
		if !ok {
			name = hexBit(mask)
		}
		names = append(names, name)
	}
	return names
}

func hexBit(mask uint32) string {
	return fmt.Sprintf("0x%x", mask)
}

// IntVar subtypes.
const (
	IntVarInvalid      = 0
	IntVarLastInsertID = 1
	IntVarInsertID     = 2
)

// IntVarTypeName names an INTVAR_EVENT subtype.
func IntVarTypeName(t uint8) string {
	switch t {
	case IntVarLastInsertID:
		return "LAST_INSERT_ID_EVENT"
	case IntVarInsertID:
		return "INSERT_ID_EVENT"
	}
	return "INVALID_INT_EVENT"
}
