// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each package that needs configuration declares its own struct with
// `env` tags (see pg.Config, redis.Config, billing.Config) and loads it
// at startup:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
package config
