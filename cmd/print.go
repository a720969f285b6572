package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minuteman3/binlog-seek/internal/binlog"
)

// printer renders events the way mysqlbinlog users expect to read them.
// quiet and queryOnly count repeated -q and -Q flags.
type printer struct {
	w         io.Writer
	log       *zap.Logger
	quiet     int
	verbose   int
	queryOnly int
	database  string
	layout    binlog.CatalogLayout
	loc       *time.Location
	ext       *binlog.ExtendedDecoder

	printed int
}

func (pr *printer) print(ev *binlog.Event) {
	payload, err := ev.Payload()
	if err != nil {
		pr.log.Warn("undecodable event body",
			zap.Int64("offset", ev.Offset),
			zap.String("type", ev.TypeName()),
			zap.Error(err))
	}
	if q, ok := payload.(*binlog.Query); ok && !pr.inDatabase(q) {
		return
	}
	if pr.queryOnly > 0 {
		pr.printStatement(payload)
		return
	}
	if pr.printed > 0 {
		fmt.Fprintln(pr.w)
	}
	pr.printed++
	pr.printHeader(ev)
	if pr.quiet > 1 {
		return
	}
	if err != nil {
		fmt.Fprintf(pr.w, "body error:         %v\n", err)
		return
	}
	pr.printPayload(ev, payload)
}

func (pr *printer) inDatabase(q *binlog.Query) bool {
	return pr.database == "" || strings.HasPrefix(q.DBName, pr.database)
}

// printStatement prints only the SQL of the transaction. XID events close
// transactions with COMMIT; at -QQ the BEGIN and COMMIT markers are dropped.
func (pr *printer) printStatement(payload interface{}) {
	switch v := payload.(type) {
	case *binlog.Query:
		if pr.queryOnly > 1 && strings.HasPrefix(v.Statement, "BEGIN") {
			return
		}
		fmt.Fprintf(pr.w, "%s;\n", v.Statement)
	case binlog.Xid:
		if pr.queryOnly <= 1 {
			fmt.Fprintln(pr.w, "COMMIT")
		}
	}
}

func (pr *printer) printHeader(ev *binlog.Event) {
	fmt.Fprintf(pr.w, "BYTE OFFSET %d\n", ev.Offset)
	fmt.Fprintln(pr.w, "------------------------")
	fmt.Fprintf(pr.w, "timestamp:          %d = %s\n", ev.Timestamp, ev.Time().In(pr.loc).Format(time.ANSIC))
	fmt.Fprintf(pr.w, "type_code:          %s\n", ev.TypeName())
	if pr.quiet > 1 {
		return
	}
	fmt.Fprintf(pr.w, "server id:          %d\n", ev.ServerID)
	if pr.verbose > 0 {
		fmt.Fprintf(pr.w, "length:             %d\n", ev.Length)
		fmt.Fprintf(pr.w, "next pos:           %d\n", ev.NextPosition)
	}
	fmt.Fprintf(pr.w, "flags:              %016b\n", ev.Flags)
	names := binlog.FlagNames(ev.Flags)
	for i := len(names) - 1; i >= 0; i-- {
		fmt.Fprintf(pr.w, "                    %s\n", names[i])
	}
}

func (pr *printer) printPayload(ev *binlog.Event, payload interface{}) {
	switch v := payload.(type) {
	case *binlog.Query:
		fmt.Fprintf(pr.w, "thread id:          %d\n", v.ThreadID)
		fmt.Fprintf(pr.w, "query time (s):     %d\n", v.QueryTime)
		if v.ErrorCode == 0 {
			fmt.Fprintf(pr.w, "error code:         %d\n", v.ErrorCode)
		} else {
			fmt.Fprintf(pr.w, "ERROR CODE:         %d\n", v.ErrorCode)
		}
		fmt.Fprintf(pr.w, "status var length:  %d\n", len(v.StatusVars))
		if pr.verbose > 0 {
			pr.printStatusVars(v)
		}
		fmt.Fprintf(pr.w, "db_name:            %s\n", v.DBName)
		fmt.Fprintf(pr.w, "statement length:   %d\n", len(v.Statement))
		if pr.quiet == 0 {
			fmt.Fprintf(pr.w, "statement:          %s\n", v.Statement)
		}
	case *binlog.Rotate:
		fmt.Fprintf(pr.w, "next log position:  %d\n", v.NextPosition)
		fmt.Fprintf(pr.w, "next file name:     %s\n", v.FileName)
	case binlog.IntVar:
		fmt.Fprintf(pr.w, "variable type:      %s\n", v.TypeName())
		fmt.Fprintf(pr.w, "value:              %d\n", v.Value)
	case binlog.Rand:
		fmt.Fprintf(pr.w, "seed 1:             %d\n", v.Seed1)
		fmt.Fprintf(pr.w, "seed 2:             %d\n", v.Seed2)
	case *binlog.FormatDescription:
		fmt.Fprintf(pr.w, "binlog version:     %d\n", v.Version)
		fmt.Fprintf(pr.w, "server version:     %s\n", v.ServerVersion)
		fmt.Fprintf(pr.w, "variable length:    %d\n", len(v.PostHeaderLengths))
	case binlog.Xid:
		fmt.Fprintf(pr.w, "xid id:             %d\n", v.ID)
	case *binlog.Opaque:
		if pr.verbose > 1 && pr.ext != nil && pr.ext.Primed() {
			if err := pr.ext.Dump(pr.w, ev); err != nil {
				fmt.Fprintf(pr.w, "body error:         %v\n", err)
			}
		}
	}
}

func (pr *printer) printStatusVars(q *binlog.Query) {
	vars, err := q.DecodeStatusVars(pr.layout)
	if err != nil {
		fmt.Fprintf(pr.w, "status vars:        %v\n", err)
		return
	}
	for _, v := range vars {
		fmt.Fprintf(pr.w, "    %-22s %s\n", v.Name()+":", formatStatusVar(v))
	}
}

func formatStatusVar(v binlog.StatusVar) string {
	switch v.Code {
	case binlog.QFlags2:
		names := binlog.Flags2Names(uint32(v.Value))
		if len(names) == 0 {
			return "0"
		}
		return fmt.Sprintf("0x%x %s", v.Value, strings.Join(names, ","))
	case binlog.QSQLMode:
		return fmt.Sprintf("0x%x", v.Value)
	case binlog.QUpdatedDBNames:
		if v.Strings == nil {
			return "(over max)"
		}
		return strings.Join(v.Strings, ",")
	}
	var parts []string
	if len(v.Strings) > 0 {
		// Only Q_INVOKER carries two strings: user and host.
		parts = append(parts, strings.Join(v.Strings, "@"))
	}
	if len(v.Values) > 0 {
		nums := make([]string, len(v.Values))
		for i, n := range v.Values {
			nums[i] = fmt.Sprint(n)
		}
		parts = append(parts, strings.Join(nums, ","))
	}
	if len(parts) == 0 {
		return fmt.Sprint(v.Value)
	}
	return strings.Join(parts, " ")
}
