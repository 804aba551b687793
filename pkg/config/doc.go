// Package config loads typed configuration from the environment.
//
// Load reads optional .env files with godotenv (never overriding variables
// that are already set) and parses the environment into a struct with
// caarlos0/env tags:
//
//	type Config struct {
//	    Addr string        `env:"HTTP_ADDR" envDefault:":8080"`
//	    TTL  time.Duration `env:"SESSION_TTL" envDefault:"720h"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
//
// Nested structs are parsed recursively, so an application config can embed
// the Config types of the packages it wires.
package config
