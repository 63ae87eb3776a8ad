// Package services defines the shared error taxonomy used across the
// analysis pipeline. Sentinel markers distinguish run-fatal failures
// (missing backend, empty queue) from per-unit failures that the scheduler
// logs and moves past.
package services
