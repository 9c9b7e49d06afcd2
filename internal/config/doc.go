// Package config loads, normalizes, and validates the content engine's TOML
// configuration.
//
// Load returns the resolved file path and whether it existed so the CLI can
// tell "using defaults" apart from "read your file". Normalization expands
// ~ paths and pulls secrets and identifiers from the environment variables
// operators already use for the Google and model APIs. Validate rejects
// values the pipeline cannot run with; RequireRemote is the stricter check a
// batch run applies before touching any item.
package config
