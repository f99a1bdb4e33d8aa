// Package config manages user-level settings stored at ~/.hotbundle/config.yaml
// and HOTBUNDLE_* environment variables. Load wires the process-wide viper
// instance; Decode turns any viper instance into typed Settings.
package config
