// Package target writes mapped records into the local datastore.
//
// Records are untyped maps keyed by column name; entities are addressed by
// table name, so the store needs no Go model per mirrored table. Find, Insert
// and Update each run as their own statement: a table synchronization never
// holds a transaction across rows.
package target
