// Package config loads and validates solver configuration. Values layer in
// priority order: built-in defaults, then an optional YAML file.
package config
