// Package scheduler drives analysis runs. It builds the queue, fans
// independent analysis units out over a bounded worker pool, persists the
// results, and remembers no-results in the blacklist. The Runner layers
// debounced, coalescing triggers on top for daemon use.
package scheduler
