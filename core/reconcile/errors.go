package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCanceled is recorded when a run stops before all rows were handled.
	ErrCanceled = errors.New("synchronization canceled")
	// ErrAlreadyRunning rejects a table that is being synchronized by this process.
	ErrAlreadyRunning = errors.New("table synchronization already running")
)

// SetupError is a failure before row processing began: invalid descriptor,
// unreachable store, missing target entity. No row of the table was touched.
type SetupError struct {
	Table string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup %s: %v", e.Table, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// RowErrorKind tells where a row failed.
type RowErrorKind string

const (
	// RowMapping means the row could not be coerced or mapped.
	RowMapping RowErrorKind = "mapping"
	// RowPersistence means the target store rejected the row.
	RowPersistence RowErrorKind = "persistence"
)

// RowError is a contained per-row failure. The row is skipped and the table
// continues.
type RowError struct {
	Table string
	Kind  RowErrorKind
	Key   any
	Err   error
}

func (e *RowError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("%s %s[%v]: %v", e.Kind, e.Table, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Table, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// DependencyUnmetError marks a table that was never attempted because some
// dependencies have not been synchronized.
type DependencyUnmetError struct {
	Table   string
	Missing []string
}

func (e *DependencyUnmetError) Error() string {
	return fmt.Sprintf("missing dependency for %s: %s not synchronized", e.Table, strings.Join(e.Missing, ", "))
}
