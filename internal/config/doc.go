// Package config loads, validates, and defaults the TOML configuration for
// skipdetect.
package config
