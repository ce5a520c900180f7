package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kiosk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// Point at a directory with no kiosk.yaml so only defaults apply.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SyncInterval != 15*time.Minute {
		t.Errorf("sync_interval default = %v, want 15m", cfg.SyncInterval)
	}
	if cfg.DebounceInterval != 2*time.Second {
		t.Errorf("debounce_interval default = %v, want 2s", cfg.DebounceInterval)
	}
	if cfg.CameraTimeout != 10*time.Second {
		t.Errorf("camera_timeout default = %v, want 10s", cfg.CameraTimeout)
	}
	if cfg.AdminWord != "sync now" {
		t.Errorf("admin_word default = %q, want sync now", cfg.AdminWord)
	}
	if len(cfg.MountRoots) == 0 {
		t.Error("mount_roots default is empty")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
data_dir: /media/usb0
remote_dir: /srv/attendance
roster_path: /etc/signin-kiosk/roster.csv
camera_bin: fswebcam
camera_args: ["-r", "640x480", "--no-banner"]
sync_interval: 5m
debounce_interval: 500ms
dashboard_addr: ":8090"
admin_word: sesame
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataDir != "/media/usb0" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.RemoteDir != "/srv/attendance" {
		t.Errorf("remote_dir = %q", cfg.RemoteDir)
	}
	if cfg.CameraBin != "fswebcam" || len(cfg.CameraArgs) != 3 {
		t.Errorf("camera = %q %v", cfg.CameraBin, cfg.CameraArgs)
	}
	if cfg.SyncInterval != 5*time.Minute {
		t.Errorf("sync_interval = %v, want 5m", cfg.SyncInterval)
	}
	if cfg.DebounceInterval != 500*time.Millisecond {
		t.Errorf("debounce_interval = %v, want 500ms", cfg.DebounceInterval)
	}
	if cfg.AdminWord != "sesame" {
		t.Errorf("admin_word = %q, want sesame", cfg.AdminWord)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "remote_dir: /srv/attendance\n")

	t.Setenv("KIOSK_REMOTE_DIR", "/srv/override")
	t.Setenv("KIOSK_ADMIN_WORD", "hunter2")
	// Keys absent from the file must still come through the environment.
	t.Setenv("KIOSK_DATA_DIR", "/media/usb0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RemoteDir != "/srv/override" {
		t.Errorf("remote_dir = %q, want env override", cfg.RemoteDir)
	}
	if cfg.AdminWord != "hunter2" {
		t.Errorf("admin_word = %q, want env override", cfg.AdminWord)
	}
	if cfg.DataDir != "/media/usb0" {
		t.Errorf("data_dir = %q, want env override", cfg.DataDir)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadRejectsBadIntervals(t *testing.T) {
	path := writeConfig(t, "sync_interval: 0s\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for zero sync_interval")
	}

	path = writeConfig(t, "debounce_interval: -1s\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative debounce_interval")
	}
}
