package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePrefersRemovable(t *testing.T) {
	tmp := t.TempDir()
	preferred := filepath.Join(tmp, "USB")
	if err := os.MkdirAll(preferred, 0755); err != nil {
		t.Fatal(err)
	}

	l := &Locator{
		Preferred: preferred,
		Fallback:  filepath.Join(tmp, "fixed"),
	}

	root, err := l.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := filepath.Join(preferred, BaseName)
	if root != want {
		t.Errorf("root = %q, want %q", root, want)
	}
}

func TestResolveScansAutoMounts(t *testing.T) {
	tmp := t.TempDir()
	mountRoot := filepath.Join(tmp, "media")
	if err := os.MkdirAll(filepath.Join(mountRoot, "SOMESTICK"), 0755); err != nil {
		t.Fatal(err)
	}

	l := &Locator{
		Preferred:  filepath.Join(tmp, "absent", "USB"),
		MountRoots: []string{mountRoot},
		Fallback:   filepath.Join(tmp, "fixed"),
	}

	root, err := l.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := filepath.Join(mountRoot, "SOMESTICK", BaseName)
	if root != want {
		t.Errorf("root = %q, want %q", root, want)
	}
}

func TestResolveFallsBackToFixed(t *testing.T) {
	tmp := t.TempDir()

	l := &Locator{
		Preferred:  filepath.Join(tmp, "absent", "USB"),
		MountRoots: []string{filepath.Join(tmp, "no-such-media")},
		Fallback:   filepath.Join(tmp, "fixed"),
	}

	root, err := l.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := filepath.Join(tmp, "fixed", BaseName)
	if root != want {
		t.Errorf("root = %q, want %q", root, want)
	}
}

func TestResolveNotCached(t *testing.T) {
	tmp := t.TempDir()
	preferred := filepath.Join(tmp, "USB")

	l := &Locator{
		Preferred: preferred,
		Fallback:  filepath.Join(tmp, "fixed"),
	}

	// First resolve: no drive, fixed medium wins.
	root, err := l.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if root != filepath.Join(tmp, "fixed", BaseName) {
		t.Fatalf("expected fixed fallback, got %q", root)
	}

	// Drive appears between invocations; next resolve must pick it up.
	if err := os.MkdirAll(preferred, 0755); err != nil {
		t.Fatal(err)
	}
	root, err = l.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if root != filepath.Join(preferred, BaseName) {
		t.Errorf("drive insertion not honored, got %q", root)
	}
}

func TestResolveStorageUnavailable(t *testing.T) {
	tmp := t.TempDir()

	// A regular file as fallback parent makes MkdirAll fail even for root.
	blocker := filepath.Join(tmp, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	l := &Locator{
		Preferred:  filepath.Join(tmp, "absent", "USB"),
		MountRoots: []string{filepath.Join(tmp, "no-such-media")},
		Fallback:   filepath.Join(blocker, "fixed"),
	}

	_, err := l.Resolve()
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("got %v, want ErrStorageUnavailable", err)
	}
}
