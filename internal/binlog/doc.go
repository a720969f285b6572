// Package binlog locates and decodes events in MySQL binary log files.
//
// A binlog carries no index, so the package finds event boundaries with a
// plausibility check on candidate headers. Parser opens a file, learns the
// acceptance bounds from the format description event, and then walks the
// log event by event. SeekToOffset and SeekToTime reposition it from an
// arbitrary byte offset or an approximate timestamp.
package binlog
