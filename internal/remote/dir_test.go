package remote

import (
	"context"
	"strings"
	"testing"
)

func TestDirStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := NewDirStorage(t.TempDir())

	inv, err := d.ListExisting(ctx, "2026-03-02")
	if err != nil {
		t.Fatalf("list of unsynced day failed: %v", err)
	}
	if len(inv) != 0 {
		t.Fatalf("unsynced day inventory not empty: %v", inv)
	}

	if err := d.Put(ctx, "2026-03-02", "Smith_A_0902_101.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := d.Put(ctx, "2026-03-02", "signins_2026-03-02.csv", strings.NewReader("id,name\n")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	inv, err = d.ListExisting(ctx, "2026-03-02")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !inv.Has("Smith_A_0902_101.jpg") || !inv.Has("signins_2026-03-02.csv") {
		t.Errorf("inventory missing stored objects: %v", inv)
	}

	// Other days stay isolated.
	inv, err = d.ListExisting(ctx, "2026-03-03")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(inv) != 0 {
		t.Errorf("objects leaked across days: %v", inv)
	}
}

func TestDirStoragePutReplaces(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	d := NewDirStorage(base)

	name := "signins_2026-03-02.csv"
	if err := d.Put(ctx, "2026-03-02", name, strings.NewReader("one row\n")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := d.Put(ctx, "2026-03-02", name, strings.NewReader("two rows\ntwo rows\n")); err != nil {
		t.Fatalf("replacing put failed: %v", err)
	}

	inv, err := d.ListExisting(ctx, "2026-03-02")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	count := 0
	for range inv {
		count++
	}
	if count != 1 {
		t.Errorf("replace created a duplicate: %v", inv)
	}
}
