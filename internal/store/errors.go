package store

import "errors"

// Store lifecycle errors
var (
	ErrStoreClosed = errors.New("message store is closed")
)
