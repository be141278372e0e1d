// Package config loads the tool's configuration from a TOML file with
// environment variable overrides layered on top.
package config
