// Package cli implements the hotbundle command tree. Each command lives in
// its own file and registers itself on the root command from init.
package cli
