package camera

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCommandCapture(t *testing.T) {
	c := Command{
		Bin:  "sh",
		Args: []string{"-c", `printf jpegdata > "{file}"`},
	}

	data, err := c.Capture(context.Background())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if string(data) != "jpegdata" {
		t.Errorf("captured %q, want jpegdata", data)
	}
}

func TestCommandCaptureBinaryFails(t *testing.T) {
	c := Command{Bin: "sh", Args: []string{"-c", "exit 3"}}

	_, err := c.Capture(context.Background())
	if !errors.Is(err, ErrCapture) {
		t.Fatalf("got %v, want ErrCapture", err)
	}
}

func TestCommandCaptureNoOutput(t *testing.T) {
	// Binary succeeds but never writes the file.
	c := Command{Bin: "true"}

	_, err := c.Capture(context.Background())
	if !errors.Is(err, ErrCapture) {
		t.Fatalf("got %v, want ErrCapture", err)
	}
}

func TestCommandCaptureTimeout(t *testing.T) {
	c := Command{
		Bin:     "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 50 * time.Millisecond,
	}

	start := time.Now()
	_, err := c.Capture(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("capture took %v, timeout not applied", elapsed)
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled.Capture(context.Background())
	if !errors.Is(err, ErrCapture) {
		t.Fatalf("got %v, want ErrCapture", err)
	}
}
