package store

import "errors"

var (
	// ErrNotFound is returned when a partition or snapshot blob does not exist.
	ErrNotFound = errors.New("blob not found")

	// ErrCorruptPartition is returned when a partition blob is non-empty but
	// cannot be decoded. The failure is local to one partition.
	ErrCorruptPartition = errors.New("corrupt partition")

	// ErrStoreUnavailable is returned for I/O failures other than not-found.
	// The current operation aborts rather than silently dropping data.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidQuery is returned for bad pagination or range parameters,
	// rejected before touching storage.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrInvalidRecord is returned when a record fails validation at the
	// store boundary.
	ErrInvalidRecord = errors.New("invalid record")
)
