// Package config handles loading and validation of the mpc-recovery
// environment settings from YAML files and environment variables. It defines
// the EnvironmentConfig structure including the deployment identity, the
// container image reference, per-signer key-material secret ids, and
// telemetry export settings.
package config
