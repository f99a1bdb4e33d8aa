// Package metrics records bundle resolution and update outcomes. The
// Prometheus recorder owns its registry so the daemon can expose it on
// /metrics without touching the global default registry.
package metrics
