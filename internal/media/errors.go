package media

import "errors"

// ErrStorageUnavailable is returned by Resolve when neither a
// removable medium nor the fixed fallback is writable. Appends and
// syncs cannot proceed until medium access is restored; the condition
// is surfaced, never retried automatically.
var ErrStorageUnavailable = errors.New("no writable storage medium")
