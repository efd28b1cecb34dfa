// Package mapper turns raw legacy rows into target records.
//
// For each source field the mapper normalizes the name to snake_case
// (gorm's NamingStrategy), drops fields the target schema does not carry,
// and coerces the value through the coerce package. A per-table Override runs
// last and always wins: it may rename, recompute or delete fields and may
// resolve a value the generic rules rejected.
//
// Map fails with an *Error when a value cannot be coerced or the primary key
// is absent. Callers record the failure and continue with the next row.
package mapper
