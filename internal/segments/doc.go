// Package segments holds the core result types of the analysis pipeline:
// analysis modes, time ranges, and the persisted-segment store boundary.
package segments
