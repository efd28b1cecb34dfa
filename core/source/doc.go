// Package source reads changed rows from the legacy system.
//
// GormSource issues one watermark query per table synchronization:
//
//	SELECT * FROM <table> WHERE <watermark> > ? ORDER BY <watermark>, <pk> LIMIT ?
//
// The WHERE clause is omitted for full runs and the LIMIT when the batch size
// is unbounded. Throttled puts a shared token bucket in front of any Source so
// parallel table runs do not overload the legacy server.
package source
