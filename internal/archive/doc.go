// Package archive implements the archive-extraction capability: unpack a
// downloaded update archive into a cache slot, failing on corrupt archives
// and on entries that would land outside the destination.
package archive
