package binlog

import (
	"time"

	"go.uber.org/zap"
)

// Defaults for Config.
const (
	// DefaultMaxScanBytes bounds how many offsets a single scan probes.
	DefaultMaxScanBytes = 16 * 1048576
	// DefaultTimestampFudge tolerates clock skew between writer and reader.
	DefaultTimestampFudge = time.Hour
	// DefaultMinTimestamp is the floor used before a log's own bounds are
	// known: 2000-01-01 UTC, older than any v4 binlog.
	DefaultMinTimestamp = 946684800
	// DefaultRefineLimit bounds the neighbour walk that ends a time search.
	DefaultRefineLimit = 64
)

// Config tunes scanning and decoding.
type Config struct {
	MaxScanBytes    int64
	MaxEventLength  uint32
	TimestampFudge  time.Duration
	MinTimestamp    int64
	EnforceServerID bool
	CatalogLayout   CatalogLayout
	RefineLimit     int
}

// DefaultConfig returns the settings used when no options are given.
func DefaultConfig() Config {
	return Config{
		MaxScanBytes:    DefaultMaxScanBytes,
		MaxEventLength:  DefaultMaxEventLength,
		TimestampFudge:  DefaultTimestampFudge,
		MinTimestamp:    DefaultMinTimestamp,
		EnforceServerID: true,
		CatalogLayout:   CatalogAuto,
		RefineLimit:     DefaultRefineLimit,
	}
}

type options struct {
	cfg  Config
	log  *zap.Logger
	name string
	now  func() time.Time
}

// Option configures a Parser or Scanner.
type Option func(*options)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithName sets the file name used in positions and diagnostics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithServerIDCheck turns server id enforcement on or off.
func WithServerIDCheck(enforce bool) Option {
	return func(o *options) {
		o.cfg.EnforceServerID = enforce
	}
}

// WithClock overrides the source of "now" used for the timestamp ceiling.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{cfg: DefaultConfig(), log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg.MaxScanBytes <= 0 {
		o.cfg.MaxScanBytes = DefaultMaxScanBytes
	}
	if o.cfg.MaxEventLength == 0 {
		o.cfg.MaxEventLength = DefaultMaxEventLength
	}
	if o.cfg.RefineLimit < 0 {
		o.cfg.RefineLimit = 0
	}
	return o
}
