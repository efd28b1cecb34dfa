// Package legacy describes the legacy business database being mirrored.
//
// It embeds catalog.yaml, the table catalog (levels, dependencies, batch
// sizes) plus the coercion rules of the legacy schema, and registers the few
// per-table overrides the declarative rules cannot express:
//
//   - projects: status_code (integer) becomes a status label.
//   - estimates: quotation (string with decimal comma) becomes a number.
//   - employees: full_name is derived from first_name and last_name.
//
// A deployment can replace the embedded catalog with sync.catalog_path.
package legacy
