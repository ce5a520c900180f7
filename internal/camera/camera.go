// Package camera abstracts the verification-photo capture device.
//
// The kiosk treats the camera as an external collaborator: something
// that produces JPEG bytes on demand. The shipped implementation
// shells out to whatever capture binary the deployment has
// (libcamera-still, fswebcam, ...); tests and photo-less deployments
// use a Func or Disabled.
package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrCapture is returned when a photo could not be taken. Sign-in
// policy decides whether to proceed photo-less; this package only
// reports the failure.
var ErrCapture = errors.New("photo capture failed")

// Capability produces one verification photo.
type Capability interface {
	// Capture takes a photo and returns its bytes, or an error
	// wrapping ErrCapture.
	Capture(ctx context.Context) ([]byte, error)
}

// Func adapts a plain function to Capability.
type Func func(ctx context.Context) ([]byte, error)

// Capture implements Capability.
func (f Func) Capture(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// Disabled is a Capability for kiosks without a camera: every capture
// fails with ErrCapture and the caller records the sign-in photo-less.
var Disabled = Func(func(context.Context) ([]byte, error) {
	return nil, fmt.Errorf("camera disabled: %w", ErrCapture)
})

// OutputPlaceholder in a Command argument is replaced with the
// temporary output path the binary must write to.
const OutputPlaceholder = "{file}"

// Command captures by running an external binary.
//
// The argument list should contain OutputPlaceholder where the binary
// expects its output path, e.g.:
//
//	camera.Command{
//	    Bin:  "libcamera-still",
//	    Args: []string{"-n", "-t", "1", "-o", "{file}"},
//	}
type Command struct {
	// Bin is the capture binary.
	Bin string

	// Args are passed to the binary, with OutputPlaceholder
	// substituted. If no placeholder is present the output path is
	// appended as a final argument.
	Args []string

	// Timeout bounds one capture attempt. Zero means 10 seconds.
	Timeout time.Duration
}

// Capture implements Capability.
func (c Command) Capture(ctx context.Context) ([]byte, error) {
	if c.Bin == "" {
		return nil, fmt.Errorf("no capture binary configured: %w", ErrCapture)
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "kiosk-capture-")
	if err != nil {
		return nil, fmt.Errorf("capture temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "capture.jpg")

	args := make([]string, 0, len(c.Args)+1)
	substituted := false
	for _, a := range c.Args {
		if strings.Contains(a, OutputPlaceholder) {
			a = strings.ReplaceAll(a, OutputPlaceholder, out)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, out)
	}

	cmd := exec.CommandContext(ctx, c.Bin, args...)
	// A forked child can keep the output pipe open after the parent is
	// killed; WaitDelay stops CombinedOutput waiting on it past the
	// deadline.
	cmd.WaitDelay = time.Second
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %v (%s): %w",
			c.Bin, err, strings.TrimSpace(string(output)), ErrCapture)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%s wrote no output: %w", c.Bin, ErrCapture)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s wrote an empty file: %w", c.Bin, ErrCapture)
	}
	return data, nil
}
