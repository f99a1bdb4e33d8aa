// Package daemon keeps the bundle cache current without a host application
// driving it. It re-reads an update manifest on a fixed interval and whenever
// the manifest file changes, and applies the announced version when it is
// newer than the active one and supported by the host version.
package daemon
