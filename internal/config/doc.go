// Package config loads, normalizes, and validates clipforge's TOML
// configuration.
package config
