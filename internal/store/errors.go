package store

import "errors"

// Errors returned by store operations.
//
// Check with errors.Is(), e.g.:
//
//	if errors.Is(err, store.ErrDuplicate) {
//	    // student already signed in today
//	}
var (
	// ErrDuplicate is returned by Append when the identifier already
	// has a record for that day. The store is unchanged.
	ErrDuplicate = errors.New("student already signed in today")
)
