// Command binlog-seek finds and prints events in MySQL binary log files.
//
// Given a byte offset or a unix time it scans the log for the nearest real
// event, with no index, and prints it and optionally the events after it.
// The locate subcommand finds which of several binlog files covers a
// specific timestamp.
//
// Usage:
//
//	binlog-seek -o 1048576 mysql-bin.000042
//	binlog-seek -t 1300000000 -a all -Q mysql-bin.000042
//	binlog-seek locate --timestamp="2023-04-01 12:30:45" mysql-bin.0000*
//
// Exit status is 0 on success, 1 on I/O or format errors and 2 on usage
// errors or when no event could be found.
package main
