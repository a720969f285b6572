package binlog

import (
	"database/sql"
	"net"
	"os"
	"sort"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// ServerConfig identifies a MySQL server whose binlog names are listed.
type ServerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// DSN formats the connection string.
func (c ServerConfig) DSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	return cfg.FormatDSN()
}

// GetBinlogFiles fetches the names of all binlog files known to the server.
func GetBinlogFiles(cfg ServerConfig, log *zap.Logger) ([]string, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, errors.Annotate(err, "failed to connect to MySQL")
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Warn("error closing database connection", zap.Error(cerr))
		}
	}()

	rows, err := db.Query("SHOW BINARY LOGS")
	if err != nil {
		return nil, errors.Annotate(err, "failed to execute SHOW BINARY LOGS")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("error closing rows", zap.Error(cerr))
		}
	}()

	// Newer servers add an Encrypted column; only the name matters.
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read columns")
	}
	var binlogFiles []string
	for rows.Next() {
		vals := make([]sql.RawBytes, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Annotate(err, "failed to scan row")
		}
		binlogFiles = append(binlogFiles, string(vals[0]))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Annotate(err, "error iterating rows")
	}

	sort.Strings(binlogFiles)
	return binlogFiles, nil
}

// TimeRangeFunc reports the first and last event times of a binlog file.
type TimeRangeFunc func(file string) (start, end time.Time, err error)

// FileTimeRange opens a local binlog and returns the time of its first real
// event and of the last plausible event before the end of the file.
func FileTimeRange(file string, opts ...Option) (start, end time.Time, err error) {
	f, err := os.Open(file)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Annotatef(ErrIO, "open %s: %v", file, err)
	}
	defer f.Close()

	p, err := NewParser(NewFileSource(f), append(opts, WithName(file))...)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var first *Event
	for first == nil {
		ev, err := p.Next()
		if err != nil {
			if errors.Cause(err) == ErrEndOfLog {
				break
			}
			return time.Time{}, time.Time{}, err
		}
		// Some writers leave timestamps at zero.
		if ev.Timestamp > 0 {
			first = ev
		}
	}
	if first == nil {
		ts := p.FormatDescription().CreateTimestamp
		return time.Unix(int64(ts), 0), time.Unix(int64(ts), 0), nil
	}

	last, err := p.NearestEvent(p.FileSize()-HeaderSize, Backward)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if last.Timestamp < first.Timestamp {
		last = first
	}
	return first.Time(), last.Time(), nil
}

// FileLocator finds which of several binlog files covers a point in time.
type FileLocator struct {
	TimeRange TimeRangeFunc
	Log       *zap.Logger
}

// BinarySearchBinlogs performs a binary search on binlog files, ordered
// oldest first, for the one containing target. The bool reports whether
// target falls inside the returned file's range; otherwise the file is the
// closest one preceding target.
func (l *FileLocator) BinarySearchBinlogs(binlogFiles []string, target time.Time) (string, bool) {
	if len(binlogFiles) == 0 {
		return "", false
	}
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}

	if len(binlogFiles) == 1 {
		start, end, err := l.TimeRange(binlogFiles[0])
		if err != nil {
			log.Warn("could not get time range", zap.String("file", binlogFiles[0]), zap.Error(err))
			return binlogFiles[0], false
		}
		return binlogFiles[0], !target.Before(start) && !target.After(end)
	}

	left, right := 0, len(binlogFiles)-1
	for left <= right {
		mid := left + (right-left)/2

		start, end, err := l.TimeRange(binlogFiles[mid])
		if err != nil {
			log.Warn("could not get time range", zap.String("file", binlogFiles[mid]), zap.Error(err))
			if mid > 0 {
				right = mid - 1
			} else {
				left = mid + 1
			}
			continue
		}

		if !target.Before(start) && !target.After(end) {
			return binlogFiles[mid], true
		}

		if target.Before(start) {
			right = mid - 1
		} else {
			left = mid + 1
		}
	}

	if left > 0 {
		return binlogFiles[left-1], false
	}
	return binlogFiles[0], false
}
