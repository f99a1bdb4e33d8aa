// Package manifest reads the update manifest a release server publishes for
// a bundle version: the version name, the sha256 of its archive and of the
// extracted bundle, and the host application versions it supports. Manifests
// are YAML or JSON and are validated against an embedded JSON schema before
// they are decoded.
package manifest
