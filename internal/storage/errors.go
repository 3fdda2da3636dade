package storage

import "errors"

// Sentinel errors for ledger operations. Callers classify with errors.Is.
var (
	// ErrStorageUnreachable means the backing store could not be reached.
	// The append is not retried here; the caller decides.
	ErrStorageUnreachable = errors.New("storage unreachable")

	// ErrSnapshotRejected means the row violated storage-level constraints.
	// Fatal to that single append only.
	ErrSnapshotRejected = errors.New("snapshot rejected")

	// ErrStorageUnavailable means a read query could not be served.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
