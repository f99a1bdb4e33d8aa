// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package before building. Go's
// //go:embed bakes it into the binary, so a rebrand never touches code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	UserAgent   string `yaml:"user_agent"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:     "hotbundle",
			DisplayName: "HotBundle",
			Description: "Cached, remotely-updatable application bundle manager",
			HomeDir:     ".hotbundle",
			EnvPrefix:   "HOTBUNDLE",
			GoModule:    "github.com/hotbundle/hotbundle",
			UserAgent:   "hotbundle-updater",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "hotbundle").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "HotBundle").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".hotbundle").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "HOTBUNDLE").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// UserAgent returns the User-Agent sent by HTTP fetches.
func UserAgent() string { load(); return defaults.UserAgent }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("DATA_DIR") → "HOTBUNDLE_DATA_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
