package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minuteman3/binlog-seek/internal/binlog"
)

type locateFlags struct {
	host      string
	port      int
	user      string
	password  string
	dataDir   string
	timestamp string
}

func newLocateCmd(a *app) *cobra.Command {
	lf := &locateFlags{}
	cmd := &cobra.Command{
		Use:   "locate [flags] [LOGFILE...]",
		Short: "Find the binlog file containing a specific timestamp",
		Long: `locate binary searches a set of binlog files, oldest first, for the one
whose events cover the given time, then prints the position of the
nearest event inside it.

The files are the arguments, or when none are given, the names the
server reports with SHOW BINARY LOGS resolved against --datadir.

Configuration file format (.ini):
  [mysql]
  host = localhost
  port = 3306
  user = root
  password = secret
  datadir = /var/lib/mysql

  [search]
  timestamp = 2023-04-01 12:30:45

Example:
  binlog-seek locate --timestamp="2023-04-01 12:30:45" mysql-bin.0000*
  binlog-seek locate --host=db.example.com --user=binlog --password=secret --datadir=/var/lib/mysql --timestamp="2023-04-01 12:30:45"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLocate(cmd, lf, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&lf.host, "host", "", "MySQL host (default: localhost)")
	f.IntVar(&lf.port, "port", 0, "MySQL port (default: 3306)")
	f.StringVar(&lf.user, "user", "", "MySQL user (default: root)")
	f.StringVar(&lf.password, "password", "", "MySQL password")
	f.StringVar(&lf.dataDir, "datadir", "", "Directory holding the server's binlog files")
	f.StringVar(&lf.timestamp, "timestamp", "", "Timestamp to search for (format: YYYY-MM-DD HH:MM:SS)")
	return cmd
}

func (a *app) runLocate(cmd *cobra.Command, lf *locateFlags, args []string) error {
	cfg, err := a.scanConfig(cmd)
	if err != nil {
		return err
	}

	// Override config with command line flags if provided
	if lf.host != "" {
		cfg.MySQL.Host = lf.host
	}
	if lf.port != 0 {
		cfg.MySQL.Port = lf.port
	}
	if lf.user != "" {
		cfg.MySQL.User = lf.user
	}
	if lf.password != "" {
		cfg.MySQL.Password = lf.password
	}
	if lf.dataDir != "" {
		cfg.DataDir = lf.dataDir
	}
	if lf.timestamp != "" {
		cfg.Timestamp = lf.timestamp
	}

	if cfg.Timestamp == "" {
		return usageErrorf("timestamp is required. Use --timestamp flag or set in config file")
	}
	target, err := parseTimestamp(cfg.Timestamp)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	log := newLogger(a.stderr, a.verbose)
	defer func() { _ = log.Sync() }()

	files := args
	if len(files) == 0 {
		names, err := binlog.GetBinlogFiles(cfg.MySQL, log)
		if err != nil {
			return err
		}
		for _, name := range names {
			files = append(files, filepath.Join(cfg.DataDir, name))
		}
	}
	if len(files) == 0 {
		return &exitError{code: exitNotFound, err: errors.New("no binlog files found")}
	}

	opts := []binlog.Option{binlog.WithConfig(cfg.Scan), binlog.WithLogger(log)}
	locator := &binlog.FileLocator{
		TimeRange: func(file string) (time.Time, time.Time, error) {
			return binlog.FileTimeRange(file, opts...)
		},
		Log: log,
	}
	binlogFile, exactMatch := locator.BinarySearchBinlogs(files, target)

	fmt.Fprintf(a.stdout, "Target time: %s\n", target.Format(timestampLayout))
	if exactMatch {
		fmt.Fprintf(a.stdout, "Found exact match in binlog file: %s\n", binlogFile)
	} else {
		fmt.Fprintf(a.stdout, "Closest binlog file containing or preceding the timestamp: %s\n", binlogFile)
	}

	pos, err := nearestPosition(binlogFile, target, opts)
	if err != nil {
		log.Warn("could not find an event near the target time", zap.String("file", binlogFile), zap.Error(err))
		return nil
	}
	fmt.Fprintf(a.stdout, "Nearest event: %s\n", pos)
	return nil
}

func nearestPosition(file string, target time.Time, opts []binlog.Option) (mysql.Position, error) {
	f, err := os.Open(file)
	if err != nil {
		return mysql.Position{}, errors.Annotatef(binlog.ErrIO, "open %s: %v", file, err)
	}
	defer f.Close()

	p, err := binlog.NewParser(binlog.NewFileSource(f), append(opts, binlog.WithName(file))...)
	if err != nil {
		return mysql.Position{}, err
	}
	if _, err := p.SeekToTime(target); err != nil {
		return mysql.Position{}, err
	}
	return p.Position(), nil
}
