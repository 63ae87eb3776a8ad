// Package library abstracts the host media server's catalog. The analysis
// pipeline consumes it read-only through the Index interface; the Jellyfin
// client is the production implementation.
package library
