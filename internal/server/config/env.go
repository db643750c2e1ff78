package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix is prepended to every variable name, e.g. YAPPLR_DATABASE_DSN.
const EnvPrefix = "YAPPLR"

// parseEnv overlays fields whose YAPPLR_* variable is set. Unset variables
// leave the current value untouched because no field declares a default tag.
// Malformed values (e.g. a bad duration) panic, like a broken JSON file.
func parseEnv(config *Config) {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
