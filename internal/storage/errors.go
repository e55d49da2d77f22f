package storage

import "errors"

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned by Set when the backend has no room left for the value.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("storage is closed")
)
