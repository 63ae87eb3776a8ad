// Package queue builds the per-run analysis queue: it enumerates eligible
// media from the host library index, applies allow- and skip-lists,
// computes each item's analysis windows, and groups items into analysis
// units (one season, or one movie).
package queue
