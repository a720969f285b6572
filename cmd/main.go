package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/minuteman3/binlog-seek/internal/binlog"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitNotFound = 2
	exitUsage    = 2
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func usageErrorf(format string, args ...interface{}) error {
	return &exitError{code: exitUsage, err: errors.Errorf(format, args...)}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	if binlog.IsNotFound(err) {
		return exitNotFound
	}
	return exitFailure
}

// app holds the flag values shared by the commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	loc    *time.Location

	configPath    string
	offset        int64
	timestamp     int64
	count         string
	quiet         int
	queryOnly     int
	verbose       int
	database      string
	noServerID    bool
	catalogLayout string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, loc: time.Local}

	cmd := &cobra.Command{
		Use:   "binlog-seek [flags] LOGFILE",
		Short: "Find and print events in a MySQL binary log",
		Long: `binlog-seek finds the nearest real event to a byte offset or a unix
time in a MySQL binary log, without an index, and prints it along with
any number of the events that follow.

Example:
  binlog-seek -o 1048576 mysql-bin.000042
  binlog-seek -t 1300000000 -a all -Q mysql-bin.000042`,
		Args:          a.fileArg,
		RunE:          a.runScan,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", getDefaultConfigPath(), "Path to configuration file")
	pf.CountVarP(&a.verbose, "verbose", "v", "Be more verbose (may be specified more than once)")
	pf.BoolVarP(&a.noServerID, "no-server-id-check", "S", false, "Accept events from any server id, not just the log's slave and master")
	pf.StringVar(&a.catalogLayout, "catalog-layout", "", "Q_CATALOG encoding: auto, nul or plain")

	f := cmd.Flags()
	f.Int64VarP(&a.offset, "offset", "o", 0, "Find the first event after the given offset")
	f.Int64VarP(&a.timestamp, "time", "t", 0, "Find the event closest to the given unix time")
	f.StringVarP(&a.count, "count", "a", "0", "Print COUNT events after the first one; an integer or 'all'")
	f.CountVarP(&a.quiet, "quiet", "q", "Be quieter (may be specified more than once)")
	f.CountVarP(&a.queryOnly, "queries", "Q", "Only print query statements; if passed twice, skip transaction markers")
	f.StringVarP(&a.database, "database", "D", "", "Skip query events whose database does not start with DBNAME")

	cmd.AddCommand(newLocateCmd(a))
	return cmd
}

func (a *app) fileArg(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageErrorf("expected one log file, got %d arguments", len(args))
	}
	return nil
}

func parseCount(s string) (int, error) {
	if s == "all" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, usageErrorf("invalid count %q: want a non-negative integer or 'all'", s)
	}
	return n, nil
}

func newLogger(w io.Writer, verbose int) *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case verbose > 1:
		level = zapcore.DebugLevel
	case verbose == 1:
		level = zapcore.InfoLevel
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), level))
}

// scanConfig loads the config file and applies the flags shared by every
// command.
func (a *app) scanConfig(cmd *cobra.Command) (*config, error) {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.noServerID {
		cfg.Scan.EnforceServerID = false
	}
	if cmd.Flags().Changed("catalog-layout") {
		layout, err := binlog.ParseCatalogLayout(a.catalogLayout)
		if err != nil {
			return nil, &exitError{code: exitUsage, err: err}
		}
		cfg.Scan.CatalogLayout = layout
	}
	return cfg, nil
}

func (a *app) runScan(cmd *cobra.Command, args []string) error {
	if a.verbose > 0 && (a.quiet > 0 || a.queryOnly > 0) {
		return usageErrorf("-v and -q/-Q may not be specified together")
	}
	if cmd.Flags().Changed("offset") && cmd.Flags().Changed("time") {
		return usageErrorf("-o and -t may not be specified together")
	}
	count, err := parseCount(a.count)
	if err != nil {
		return err
	}
	cfg, err := a.scanConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(a.stderr, a.verbose)
	defer func() { _ = log.Sync() }()

	file := args[0]
	f, err := os.Open(file)
	if err != nil {
		return errors.Annotatef(binlog.ErrIO, "open %s: %v", file, err)
	}
	defer f.Close()
	src := binlog.NewFileSource(f)

	p, err := binlog.NewParser(src,
		binlog.WithConfig(cfg.Scan),
		binlog.WithLogger(log),
		binlog.WithName(file))
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("time") {
		_, err = p.SeekToTime(time.Unix(a.timestamp, 0))
	} else {
		_, err = p.SeekToOffset(a.offset)
	}
	if err != nil {
		if binlog.IsNotFound(err) {
			return &exitError{code: exitNotFound, err: errors.Annotate(err, "could not find any records")}
		}
		return err
	}

	pr := &printer{
		w:         a.stdout,
		log:       log,
		quiet:     a.quiet,
		verbose:   a.verbose,
		queryOnly: a.queryOnly,
		database:  a.database,
		layout:    cfg.Scan.CatalogLayout,
		loc:       a.loc,
	}
	if a.verbose > 1 {
		pr.ext = primeDecoder(src, cfg.Scan.MaxEventLength, log)
	}
	return walk(p, pr, count, log)
}

// primeDecoder returns a go-mysql decoder primed with the log's format
// description event, or nil when that cannot be decoded.
func primeDecoder(src binlog.Source, maxLength uint32, log *zap.Logger) *binlog.ExtendedDecoder {
	fde, err := binlog.ReadEvent(src, binlog.MagicSize, maxLength)
	if err == nil {
		dec := binlog.NewExtendedDecoder()
		if err = dec.Prime(fde); err == nil {
			return dec
		}
	}
	log.Info("extended decoding disabled", zap.Error(err))
	return nil
}

// walk prints the event at the cursor and then up to count more; a
// negative count prints to the end of the log.
func walk(p *binlog.Parser, pr *printer, count int, log *zap.Logger) error {
	for shown := 0; count < 0 || shown <= count; shown++ {
		ev, err := p.Next()
		if err != nil {
			switch errors.Cause(err) {
			case binlog.ErrEndOfLog:
				return nil
			case binlog.ErrTruncatedBody:
				log.Warn("last event is incomplete", zap.Int64("offset", p.Offset()), zap.Error(err))
				return nil
			}
			return err
		}
		pr.print(ev)
	}
	return nil
}

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
