// Package config loads runtime configuration for the scanvault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string        base URL of the server ("http://localhost:8080")
//	-timeout string  request timeout ("30s", "10m", "1d")
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "90s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "https://scans.example.com",
//	  "request_timeout": "10m"
//	}
package config
