// Package config loads runtime configuration for the yapplr CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c/--config.
//  3. YAPPLR_CLI_* environment variables.
//
// Command-line flags such as --server are applied by the cli package on top
// of the loaded Config.
//
// JSON schema:
//
//	{
//	  "server_url": "http://localhost:5161",
//	  "token_file": "/home/alice/.yapplr/token",
//	  "timeout": "10s"
//	}
package config
