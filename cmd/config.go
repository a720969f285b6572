package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-ini/ini"
	"github.com/pingcap/errors"

	"github.com/minuteman3/binlog-seek/internal/binlog"
)

const defaultConfigFile = ".binlog-seek.ini"

type config struct {
	Scan      binlog.Config
	MySQL     binlog.ServerConfig
	DataDir   string
	Timestamp string
}

func loadConfig(path string) (*config, error) {
	cfg := &config{
		Scan: binlog.DefaultConfig(),
		MySQL: binlog.ServerConfig{
			Host: "localhost",
			Port: 3306,
			User: "root",
		},
	}

	// Check if config file exists
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to load config file %s", path)
	}

	scan := iniFile.Section("scan")
	cfg.Scan.MaxScanBytes = scan.Key("max_scan_bytes").MustInt64(cfg.Scan.MaxScanBytes)
	cfg.Scan.MaxEventLength = uint32(scan.Key("max_event_length").MustUint(uint(cfg.Scan.MaxEventLength)))
	cfg.Scan.TimestampFudge = scan.Key("timestamp_fudge").MustDuration(cfg.Scan.TimestampFudge)
	cfg.Scan.MinTimestamp = scan.Key("min_timestamp").MustInt64(cfg.Scan.MinTimestamp)
	cfg.Scan.EnforceServerID = scan.Key("enforce_server_id").MustBool(cfg.Scan.EnforceServerID)
	cfg.Scan.RefineLimit = scan.Key("refine_limit").MustInt(cfg.Scan.RefineLimit)
	if scan.HasKey("catalog_layout") {
		layout, err := binlog.ParseCatalogLayout(scan.Key("catalog_layout").String())
		if err != nil {
			return nil, errors.Annotatef(err, "%s: [scan] catalog_layout", path)
		}
		cfg.Scan.CatalogLayout = layout
	}
	if cfg.Scan.TimestampFudge < 0 {
		return nil, errors.Errorf("%s: [scan] timestamp_fudge must not be negative", path)
	}

	// MySQL section
	mysqlSection := iniFile.Section("mysql")
	cfg.MySQL.Host = mysqlSection.Key("host").MustString(cfg.MySQL.Host)
	cfg.MySQL.Port = mysqlSection.Key("port").MustInt(cfg.MySQL.Port)
	cfg.MySQL.User = mysqlSection.Key("user").MustString(cfg.MySQL.User)
	cfg.MySQL.Password = mysqlSection.Key("password").MustString(cfg.MySQL.Password)
	cfg.DataDir = mysqlSection.Key("datadir").MustString(cfg.DataDir)

	// Search section
	cfg.Timestamp = iniFile.Section("search").Key("timestamp").String()

	return cfg, nil
}

// getDefaultConfigPath returns the path to the default config file in the user's home directory
func getDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultConfigFile
	}
	return filepath.Join(homeDir, defaultConfigFile)
}

const timestampLayout = "2006-01-02 15:04:05"

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, errors.Annotate(err, "invalid timestamp format")
	}
	return t, nil
}
