// Package utils provides common utility functions for the legacy-mirror application.
// It includes the low-level value conversions used by the coercion layer
// (integers of any width, legacy flag encodings, driver.Valuer unwrapping) and
// other shared logic that doesn't fit into domain-specific packages.
package utils
