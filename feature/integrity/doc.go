// Package integrity checks that the local target can receive the mirrored tables.
//
// # Checks Provided
//
//   - Schema: every enabled catalog table has its target entity, and the entity
//     carries the primary key, watermark and (when configured) touch columns.
//     Operator overrides from the sync state are applied first. Non-temporal
//     watermark columns and non-unique key columns are reported as warnings.
//   - Storage: the run report archive bucket is reachable.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/storage : Runs the storage check.
package integrity
