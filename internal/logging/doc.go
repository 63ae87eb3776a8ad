// Package logging builds the application's slog loggers and provides the
// attribute helpers used throughout skipdetect. Console output targets humans
// watching a run; JSON output targets log collectors.
package logging
