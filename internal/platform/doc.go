// Package platform provides the small set of filesystem primitives the bundle
// cache is built on: regular-file checks, removal that tolerates absent paths,
// fsync of files and directories, and atomic file replacement. Permission
// changes are a no-op on Windows, which has no Unix permission bits.
package platform
