// Package remote defines the storage capability the sync engine uploads
// to, plus the two implementations the kiosk ships with: a directory
// mirror for mounted shares and an in-memory store for tests.
//
// The capability is deliberately small: list what a day already has,
// and put one named object. Authentication lifecycle, retries and
// transport timeouts belong to the implementation behind it.
package remote

import (
	"context"
	"io"
)

// Inventory is the set of object names already present at the remote
// destination for one day.
type Inventory map[string]struct{}

// Has reports whether the named object is already stored remotely.
func (inv Inventory) Has(name string) bool {
	_, ok := inv[name]
	return ok
}

// Add marks an object name as present.
func (inv Inventory) Add(name string) {
	inv[name] = struct{}{}
}

// Storage is the abstract remote destination for a day's records and
// photos.
//
// Implementations must make Put idempotent for the same (date, name):
// re-sending an object that already exists overwrites it rather than
// duplicating it, which is what lets the sync engine re-run safely.
type Storage interface {
	// ListExisting returns the names already stored for a day.
	// A day that was never synced yields an empty inventory, not an
	// error.
	ListExisting(ctx context.Context, date string) (Inventory, error)

	// Put stores one named object for a day, replacing any previous
	// object of the same name.
	Put(ctx context.Context, date, name string, r io.Reader) error
}
