package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/hotbundle/hotbundle/internal/bundle"
)

// Settings is the typed view of the configuration.
type Settings struct {
	DataDir        string `mapstructure:"data_dir"`
	UpdateDir      string `mapstructure:"update_dir"`
	StagingDir     string `mapstructure:"staging_dir"`
	BundleFile     string `mapstructure:"bundle_file"`
	ArchiveFile    string `mapstructure:"archive_file"`
	FallbackScheme string `mapstructure:"fallback_scheme"`
	Platform       string `mapstructure:"platform"`
	AppVersion     string `mapstructure:"app_version"`

	Store  StoreSettings  `mapstructure:"store"`
	Source SourceSettings `mapstructure:"source"`
	Retry  RetrySettings  `mapstructure:"retry"`
	Log    LogSettings    `mapstructure:"log"`
	Daemon DaemonSettings `mapstructure:"daemon"`
}

type StoreSettings struct {
	Backend string `mapstructure:"backend"`
}

// SourceSettings selects where update archives are fetched from.
type SourceSettings struct {
	Kind      string            `mapstructure:"kind"`
	URL       string            `mapstructure:"url"`
	Bucket    string            `mapstructure:"bucket"`
	Region    string            `mapstructure:"region"`
	Endpoint  string            `mapstructure:"endpoint"`
	PathStyle bool              `mapstructure:"path_style"`
	Dir       string            `mapstructure:"dir"`
	Headers   map[string]string `mapstructure:"headers"`
}

type RetrySettings struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"`
}

// DaemonSettings configures the background update loop.
type DaemonSettings struct {
	Interval       time.Duration `mapstructure:"interval"`
	Manifest       string        `mapstructure:"manifest"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
	AllowDowngrade bool          `mapstructure:"allow_downgrade"`
}

// SetDefaults registers every known key on v. Keys must be registered for
// environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", filepath.Join(Dir(), "data"))
	v.SetDefault("update_dir", "HotUpdate")
	v.SetDefault("staging_dir", "temp")
	v.SetDefault("bundle_file", "index.bundle")
	v.SetDefault("archive_file", "bundle.zip")
	v.SetDefault("fallback_scheme", "assets://")
	v.SetDefault("platform", runtime.GOOS)
	v.SetDefault("app_version", "0.0.0")

	v.SetDefault("store.backend", "file")

	v.SetDefault("source.kind", "http")
	v.SetDefault("source.url", "")
	v.SetDefault("source.bucket", "")
	v.SetDefault("source.region", "")
	v.SetDefault("source.endpoint", "")
	v.SetDefault("source.path_style", false)
	v.SetDefault("source.dir", "")

	v.SetDefault("retry.initial_interval", "500ms")
	v.SetDefault("retry.max_elapsed", "2m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.format", "text")

	v.SetDefault("daemon.interval", "15m")
	v.SetDefault("daemon.manifest", "")
	v.SetDefault("daemon.metrics_addr", "")
	v.SetDefault("daemon.allow_downgrade", false)
}

// Decode unmarshals v into Settings and validates the result.
func Decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&s, hook); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Current decodes the process-wide configuration set up by Load.
func Current() (*Settings, error) {
	return Decode(viper.GetViper())
}

// Layout returns the cache layout below DataDir named by the settings.
func (s *Settings) Layout() bundle.Layout {
	l := bundle.NewLayout(s.DataDir)
	l.UpdateDirName = s.UpdateDir
	l.StagingDirName = s.StagingDir
	l.BundleFileName = s.BundleFile
	l.ArchiveFileName = s.ArchiveFile
	return l
}

// Validate checks the enumerated keys and the fields every command needs.
func (s *Settings) Validate() error {
	switch s.Store.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("store.backend %q: must be file, sqlite or memory", s.Store.Backend)
	}
	switch s.Source.Kind {
	case "http", "s3", "dir":
	default:
		return fmt.Errorf("source.kind %q: must be http, s3 or dir", s.Source.Kind)
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be text or json", s.Log.Format)
	}
	if s.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if err := s.Layout().Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if s.Retry.MaxElapsed < 0 || s.Retry.InitialInterval < 0 {
		return fmt.Errorf("retry intervals must not be negative")
	}
	return nil
}
