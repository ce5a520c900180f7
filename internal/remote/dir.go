package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// DirStorage mirrors day objects into a directory tree, one
// subdirectory per day:
//
//	<base>/<YYYY-MM-DD>/<object name>
//
// It is meant for destinations that arrive as a filesystem: an NFS or
// SMB mount, a second drive, or a directory a separate tool ships
// offsite. Objects are replaced atomically so a reader on the other
// side never observes a half-written CSV.
type DirStorage struct {
	base string
}

// NewDirStorage returns a DirStorage rooted at base. The directory is
// created on first Put, not here, so constructing one is always cheap.
func NewDirStorage(base string) *DirStorage {
	return &DirStorage{base: base}
}

// ListExisting implements Storage.
func (d *DirStorage) ListExisting(ctx context.Context, date string) (Inventory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inv := make(Inventory)
	entries, err := os.ReadDir(filepath.Join(d.base, date))
	if os.IsNotExist(err) {
		return inv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list remote day %s: %w", date, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		inv.Add(entry.Name())
	}
	return inv, nil
}

// Put implements Storage.
func (d *DirStorage) Put(ctx context.Context, date, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(d.base, date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create remote day %s: %w", date, err)
	}

	// atomic.WriteFile needs a seekable temp copy anyway; buffer once
	// so a slow reader can't hold the destination rename open.
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("failed to read object %s: %w", name, err)
	}
	if err := atomic.WriteFile(filepath.Join(dir, name), &buf); err != nil {
		return fmt.Errorf("failed to store object %s: %w", name, err)
	}
	return nil
}
