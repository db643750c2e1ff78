package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yapplr/yapplr/internal/timex"
)

// JsonConfig is a DTO used only for unmarshalling; timex.Duration lets the
// file say "10s" as well as raw nanoseconds.
type JsonConfig struct {
	ServerURL string         `json:"server_url"`
	TokenFile string         `json:"token_file"`
	Timeout   timex.Duration `json:"timeout"`
}

// parseJSON overlays cfg with the non-empty fields of the file at path.
// An empty path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.TokenFile != "" {
		cfg.TokenFile = jc.TokenFile
	}
	if jc.Timeout.Duration > 0 {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
