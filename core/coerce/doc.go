// Package coerce converts raw legacy column values into the strict types of
// the local target schema.
//
// Coercion is driven by a declarative rule table (Rules), usually loaded from
// the catalog YAML, rather than by per-table branching. For a given
// (table, field, raw value) the rules apply in this order:
//
//  1. nil, sql.Null* with Valid=false and typed nil pointers become nil.
//  2. String fields (identifiers, phone numbers, postal codes, tax ids) are
//     stringified; for the table-specific ZeroAsNull list a literal zero
//     becomes nil.
//  3. Flag fields map 0/1 (or "0"/"1") to false/true. Anything else is
//     returned as a *FieldError for the caller to record.
//  4. Date fields (by suffix, minus DateExclusions) are parsed to UTC
//     time.Time; unparsable input becomes nil, never an error.
//  5. Integers outside the float64 exact range are stringified.
//  6. Everything else passes through.
//
// Fields listed in DropFields are classified KindDropped; the record mapper
// removes them from the output entirely.
//
// The Coercer performs no I/O and is safe for concurrent use.
package coerce
