package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/yapplr/yapplr/internal/flagx"
)

// EnvPrefix is prepended to every variable name, e.g. YAPPLR_CLI_SERVER_URL.
const EnvPrefix = "YAPPLR_CLI"

// Config holds runtime settings for the yapplr CLI.
type Config struct {
	ServerURL string        `envconfig:"SERVER_URL"`
	TokenFile string        `envconfig:"TOKEN_FILE"`
	Timeout   time.Duration `envconfig:"TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults. The token lives under the
// user's home directory, or the working directory when that is unknown.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5161"
	c.Timeout = 10 * time.Second

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.TokenFile = filepath.Join(home, ".yapplr", "token")
}

// LoadConfig builds a Config from defaults, the JSON file named by -c/--config
// in args (if any) and the environment.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, flagx.ConfigFileFlag(args)); err != nil {
		return nil, err
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
