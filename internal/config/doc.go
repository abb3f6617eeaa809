// Package config loads, normalizes, and validates passlaunch configuration.
//
// Configuration lives in a TOML file (by default ~/.config/passlaunch/config.toml,
// falling back to ./passlaunch.toml). Load starts from Default(), decodes the
// file on top, expands paths, applies environment fallbacks, and rejects
// settings that would let the master job land on a preemptible partition.
// Command-line flags are layered over the Defaults section by the CLI.
package config
