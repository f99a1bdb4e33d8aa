package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hotbundle/hotbundle/internal/branding"
	"github.com/hotbundle/hotbundle/internal/platform"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Dir returns the config directory (~/.hotbundle/). HOTBUNDLE_HOME
// overrides it.
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("HOME")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.hotbundle/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := platform.EnsureDir(dir); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// Nested keys map to env vars with dots replaced, so source.url is read from
// HOTBUNDLE_SOURCE_URL.
func Load() error {
	return LoadInto(viper.GetViper(), FilePath())
}

// LoadInto configures v with the defaults, the config file at path and the
// environment. A missing config file is not an error.
func LoadInto(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	if errors.As(err, &nf) {
		return true
	}
	return errors.Is(err, os.ErrNotExist)
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}
	if err := SetIn(FilePath(), key, value); err != nil {
		return err
	}
	viper.Set(key, value)
	return nil
}

// SetIn writes key to the config file at path, keeping the keys already in
// it. Defaults and environment values are not written.
func SetIn(path, key, value string) error {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType(fileType)
	if err := file.ReadInConfig(); err != nil && !isNotFound(err) {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	file.Set(key, value)

	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
