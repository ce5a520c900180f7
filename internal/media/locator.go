// Package media picks the active data root among candidate storage
// media. A removable drive is preferred so a day's data walks out of
// the building with the kiosk operator; a fixed directory is the
// fallback when no drive is mounted.
package media

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
)

// BaseName is the subdirectory created on whichever medium wins.
const BaseName = "signin_kiosk_data"

// Locator resolves the active data root. Selection is re-evaluated on
// every Resolve call so inserting or pulling a drive between runs is
// honored without a restart; nothing is cached.
type Locator struct {
	// Preferred is the mount point tried first, typically the
	// operator's labeled USB stick (/media/<user>/USB).
	Preferred string

	// MountRoots are directories scanned for any writable auto-mounted
	// drive when Preferred is absent.
	MountRoots []string

	// Fallback is the fixed-medium directory used when no removable
	// candidate is writable.
	Fallback string
}

// Default returns a Locator configured for the current user's mount
// points, with the fixed fallback next to the executable's working
// directory.
func Default() *Locator {
	name := "kiosk"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	return &Locator{
		Preferred: filepath.Join("/media", name, "USB"),
		MountRoots: []string{
			filepath.Join("/media", name),
			filepath.Join("/run/media", name),
		},
		Fallback: ".",
	}
}

// Resolve returns the active data root, creating the BaseName
// subdirectory on the winning medium. Returns ErrStorageUnavailable
// only when no candidate, fallback included, is writable.
func (l *Locator) Resolve() (string, error) {
	if dirWritable(l.Preferred) {
		if base, err := claim(filepath.Join(l.Preferred, BaseName)); err == nil {
			return base, nil
		}
	}

	for _, root := range l.MountRoots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			mount := filepath.Join(root, entry.Name())
			if !dirWritable(mount) {
				continue
			}
			if base, err := claim(filepath.Join(mount, BaseName)); err == nil {
				return base, nil
			}
		}
	}

	if base, err := claim(filepath.Join(l.Fallback, BaseName)); err == nil {
		return base, nil
	}

	return "", fmt.Errorf("no writable medium (tried %s, %v, %s): %w",
		l.Preferred, l.MountRoots, l.Fallback, ErrStorageUnavailable)
}

// claim ensures the data base directory exists and is actually
// writable, not just stat-writable. Mounts can be read-only while
// their modes say otherwise, so we probe with a real file.
func claim(base string) (string, error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", err
	}
	probe := filepath.Join(base, ".write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return "", err
	}
	f.Close()
	os.Remove(probe)
	return base, nil
}

// dirWritable reports whether path is an existing directory we can
// plausibly write under.
func dirWritable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
