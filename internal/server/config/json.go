package config

import (
	"encoding/json"
	"os"

	"github.com/yapplr/yapplr/internal/flagx"
	"github.com/yapplr/yapplr/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "15m" strings or integer nanoseconds. Pointer fields distinguish
// "absent" from "zero" so a partial file only overrides what it names.
type JsonConfig struct {
	HTTPAddr             *string         `json:"http_addr"`
	GRPCAddr             *string         `json:"grpc_addr"`
	DatabaseDSN          *string         `json:"database_dsn"`
	LogLevel             *string         `json:"log_level"`
	RedisAddr            *string         `json:"redis_addr"`
	ResetLinkURL         *string         `json:"reset_link_url"`
	Production           *bool           `json:"production"`
	SecretKey            *string         `json:"secret_key"`
	Issuer               *string         `json:"issuer"`
	Audience             *string         `json:"audience"`
	SessionTokenValidity *timex.Duration `json:"session_token_validity"`
	BcryptCost           *int            `json:"bcrypt_cost"`
	LoginMaxAttempts     *int            `json:"login_max_attempts"`
	LoginLockout         *timex.Duration `json:"login_lockout"`
	Mail                 *struct {
		Provider     string `json:"provider"`
		From         string `json:"from"`
		SMTPHost     string `json:"smtp_host"`
		SMTPPort     int    `json:"smtp_port"`
		SMTPUsername string `json:"smtp_username"`
		SMTPPassword string `json:"smtp_password"`
		SESRegion    string `json:"ses_region"`
		SESEndpoint  string `json:"ses_endpoint"`
	} `json:"mail"`
}

// parseJson loads the file named by -c/-config (if any) and copies every
// present field into config. An unreadable or invalid file panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.ResetLinkURL, c.ResetLinkURL)
	if c.Production != nil {
		config.Production = *c.Production
	}
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.Audience, c.Audience)
	if c.SessionTokenValidity != nil {
		config.SessionTokenValidity = c.SessionTokenValidity.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.LoginMaxAttempts != nil {
		config.LoginMaxAttempts = *c.LoginMaxAttempts
	}
	if c.LoginLockout != nil {
		config.LoginLockout = c.LoginLockout.Duration
	}
	if c.Mail != nil {
		config.Mail = MailConfig{
			Provider:     c.Mail.Provider,
			From:         c.Mail.From,
			SMTPHost:     c.Mail.SMTPHost,
			SMTPPort:     c.Mail.SMTPPort,
			SMTPUsername: c.Mail.SMTPUsername,
			SMTPPassword: c.Mail.SMTPPassword,
			SESRegion:    c.Mail.SESRegion,
			SESEndpoint:  c.Mail.SESEndpoint,
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
