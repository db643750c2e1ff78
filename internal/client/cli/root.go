package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/yapplr/yapplr/internal/client/api"
	"github.com/yapplr/yapplr/internal/client/config"
)

// AuthClient is the subset of the HTTP API the commands use.
type AuthClient interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	Me(ctx context.Context, token string) (*api.User, error)
}

// newAuthClient is a test seam.
var newAuthClient = func(cfg *config.Config) AuthClient {
	return api.New(cfg.ServerURL, cfg.Timeout)
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	api    AuthClient
	tokens tokenStore
	in     *bufio.Reader
	out    io.Writer
}

func (a *app) prompt(label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	return GetSimpleText(a.in, label, a.out)
}

type rootFlags struct {
	configFile string
	server     string
	tokenFile  string
}

// NewRootCmd builds the yapplr command tree.
func NewRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	root := &cobra.Command{
		Use:           "yapplr",
		Short:         "Command-line client for the Yapplr account API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var args []string
			if flags.configFile != "" {
				args = []string{"--config", flags.configFile}
			}
			cfg, err := config.LoadConfig(args)
			if err != nil {
				return err
			}
			if flags.server != "" {
				cfg.ServerURL = flags.server
			}
			if flags.tokenFile != "" {
				cfg.TokenFile = flags.tokenFile
			}

			a.api = newAuthClient(cfg)
			a.tokens = tokenStore{path: cfg.TokenFile}
			a.in = bufio.NewReader(cmd.InOrStdin())
			a.out = cmd.OutOrStdout()
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "path to JSON config file")
	pf.StringVarP(&flags.server, "server", "s", "", "API base URL (overrides config)")
	pf.StringVar(&flags.tokenFile, "token-file", "", "where the session token is stored")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newForgotPasswordCmd(a),
		newResetPasswordCmd(a),
		newMeCmd(a),
	)
	return root
}
