// Package config loads the environment configuration of the servers and the
// optional zoo overrides file.
package config
