// Package config resolves the mesh-cli configuration from a YAML file, the
// process environment, and built-in defaults, in that order of precedence.
package config
