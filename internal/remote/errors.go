package remote

import "errors"

// Errors implementations return to classify failures for the sync
// engine. Wrap them so errors.Is still matches:
//
//	fmt.Errorf("drive put %s: %w", name, remote.ErrAuth)
var (
	// ErrAuth means the remote rejected our credentials. Retrying
	// within a run is futile; the executor aborts the run and the
	// operator has to remediate credentials.
	ErrAuth = errors.New("remote storage rejected credentials")
)
