// Package fetch implements the archive-fetch capability: download a named
// remote object to a local path. Backends are plain HTTP(S), S3-compatible
// object storage and a local directory mirror; Retrying wraps any of them
// with exponential backoff.
package fetch
