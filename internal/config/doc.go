// Package config loads, validates, and normalizes scribe's TOML
// configuration, overlays secrets from the environment, and owns directory
// bootstrap for the data, cache, and log trees.
package config
