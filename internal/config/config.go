// Package config loads kiosk settings from kiosk.yaml and the environment.
//
// Settings resolve in order: defaults, then the config file, then KIOSK_*
// environment variables. The file is optional; a kiosk with no config at
// all runs with local-disk defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the kiosk commands share.
type Config struct {
	// DataDir is the preferred storage base, typically a removable
	// drive mount. Empty means auto-detect.
	DataDir string `mapstructure:"data_dir"`

	// FallbackDir is used when no removable drive is writable.
	FallbackDir string `mapstructure:"fallback_dir"`

	// MountRoots are scanned for removable drives when DataDir is
	// not itself writable.
	MountRoots []string `mapstructure:"mount_roots"`

	// RemoteDir is the upload destination base directory.
	RemoteDir string `mapstructure:"remote_dir"`

	// RosterPath is the student roster CSV export.
	RosterPath string `mapstructure:"roster_path"`

	// ArchivePath is the reporting database file.
	ArchivePath string `mapstructure:"archive_path"`

	// CameraBin and CameraArgs form the photo capture command. An
	// empty CameraBin disables capture.
	CameraBin  string   `mapstructure:"camera_bin"`
	CameraArgs []string `mapstructure:"camera_args"`

	// CameraTimeout bounds one capture attempt.
	CameraTimeout time.Duration `mapstructure:"camera_timeout"`

	// SyncInterval is how often the daemon uploads without changes.
	SyncInterval time.Duration `mapstructure:"sync_interval"`

	// DebounceInterval is how long the daemon waits after the last
	// change before uploading.
	DebounceInterval time.Duration `mapstructure:"debounce_interval"`

	// DashboardAddr is the monitoring WebSocket listen address.
	// Empty disables the dashboard.
	DashboardAddr string `mapstructure:"dashboard_addr"`

	// LogFile is the daemon log destination. Empty logs to stderr.
	LogFile string `mapstructure:"log_file"`

	// AdminWord triggers an immediate upload when typed at the
	// sign-in prompt.
	AdminWord string `mapstructure:"admin_word"`
}

// Load reads configuration. path names an explicit config file; when
// empty, kiosk.yaml is searched for in the working directory and
// /etc/signin-kiosk. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Every key needs a default: AutomaticEnv only surfaces KIOSK_*
	// variables for keys viper already knows about.
	v.SetDefault("data_dir", "")
	v.SetDefault("fallback_dir", "")
	v.SetDefault("mount_roots", []string{"/media", "/run/media", "/mnt"})
	v.SetDefault("remote_dir", "")
	v.SetDefault("roster_path", "")
	v.SetDefault("archive_path", "")
	v.SetDefault("camera_bin", "")
	v.SetDefault("camera_args", []string{})
	v.SetDefault("camera_timeout", 10*time.Second)
	v.SetDefault("sync_interval", 15*time.Minute)
	v.SetDefault("debounce_interval", 2*time.Second)
	v.SetDefault("dashboard_addr", "")
	v.SetDefault("log_file", "")
	v.SetDefault("admin_word", "sync now")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kiosk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/signin-kiosk")
	}

	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.SyncInterval <= 0 {
		return nil, fmt.Errorf("sync_interval must be positive, got %v", cfg.SyncInterval)
	}
	if cfg.DebounceInterval <= 0 {
		return nil, fmt.Errorf("debounce_interval must be positive, got %v", cfg.DebounceInterval)
	}
	return &cfg, nil
}
