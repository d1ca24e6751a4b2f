// Package config loads and validates mediakit configuration.
//
// Configuration comes from a YAML file plus environment variable
// overrides, loaded with Viper. A .env file is honored when present.
//
//	cfg, err := config.Load("mediakit")
//
// Environment variables override file values using underscore-separated
// paths (e.g. ENGINE_WORKERS, CACHE_MAX_BYTES).
package config
