// Package kvstore provides the durable string key/value settings the bundle
// cache keeps its update record in. Values survive process restarts for the
// file and sqlite backends; the memory backend is for tests and hosts that
// manage persistence themselves.
package kvstore
