package config

import (
	"flag"
	"time"

	"github.com/yapplr/yapplr/internal/flagx"
)

// parseFlags populates selected Config fields from short command-line flags.
//
//	-a string   HTTP bind address
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-r string   Redis address (enables the mail queue and login throttle)
//	-l string   password reset link base URL
//	-m string   mail provider (console, smtp, ses)
//
// Only the flags above are parsed; everything else on the command line is
// ignored so the config flags can share os.Args with other parsers.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-r", "-l", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve HTTP on")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to serve gRPC health on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "jwt secret key")
	validity := fs.Int("t", int(config.SessionTokenValidity.Minutes()), "session token validity (in minutes)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.ResetLinkURL, "l", config.ResetLinkURL, "password reset link base URL")
	fs.StringVar(&config.Mail.Provider, "m", config.Mail.Provider, "mail provider")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTokenValidity = time.Duration(*validity) * time.Minute
}
