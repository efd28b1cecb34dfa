// Package database opens the GORM connections used for the legacy source and
// the local target, and inspects table schemas.
//
// # Connect
//
// Connect selects the dialector from Config.Driver (mysql or sqlite), sizes the
// connection pool and pings the server before returning. SQLite connections are
// pinned to a single pooled connection.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table. It backs the target schema
// integrity check and the setup check of every table synchronization.
//
// # Usage
//
//	db, err := database.Connect(cfg.Target)
//	if err != nil {
//	    return err
//	}
//
//	columns, err := database.GetTableColumns(db, "projects")
package database
