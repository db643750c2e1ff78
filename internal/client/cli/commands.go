package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yapplr/yapplr/internal/client/api"
	"github.com/yapplr/yapplr/internal/common"
)

func newRegisterCmd(a *app) *cobra.Command {
	var req api.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.Email, err = a.prompt("Email", req.Email); err != nil {
				return err
			}
			if req.Username, err = a.prompt("Username", req.Username); err != nil {
				return err
			}
			pw, err := GetNewPassword(a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)
			req.Password = string(pw)

			res, err := a.api.Register(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			return a.saveSession(res, "Registered")
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "account email")
	f.StringVar(&req.Username, "username", "", "public username (3-50 characters)")
	f.StringVar(&req.Bio, "bio", "", "profile bio")
	f.StringVar(&req.Birthday, "birthday", "", "birthday as YYYY-MM-DD")
	f.StringVar(&req.Pronouns, "pronouns", "", "pronouns shown on the profile")
	f.StringVar(&req.Tagline, "tagline", "", "short profile tagline")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = a.prompt("Email", email); err != nil {
				return err
			}
			pw, err := GetPassword("Password", a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			res, err := a.api.Login(cmd.Context(), email, string(pw))
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			return a.saveSession(res, "Logged in")
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.tokens.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newForgotPasswordCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = a.prompt("Email", email); err != nil {
				return err
			}
			msg, err := a.api.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("forgot password: %w", err)
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password using the token from a reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if token, err = a.prompt("Reset token", token); err != nil {
				return err
			}
			pw, err := GetNewPassword(a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			msg, err := a.api.ResetPassword(cmd.Context(), token, string(pw))
			if err != nil {
				return fmt.Errorf("reset password: %w", err)
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the reset link")
	return cmd
}

func newMeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := a.tokens.Load()
			if err != nil {
				return err
			}
			u, err := a.api.Me(cmd.Context(), tok)
			if api.IsUnauthorized(err) {
				_ = a.tokens.Clear()
				return errors.Join(errNotLoggedIn, err)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "id:        %s\n", u.ID)
			fmt.Fprintf(a.out, "username:  %s\n", u.Username)
			fmt.Fprintf(a.out, "email:     %s\n", u.Email)
			if u.Pronouns != "" {
				fmt.Fprintf(a.out, "pronouns:  %s\n", u.Pronouns)
			}
			if u.Tagline != "" {
				fmt.Fprintf(a.out, "tagline:   %s\n", u.Tagline)
			}
			fmt.Fprintf(a.out, "joined:    %s\n", u.CreatedAt.Format(time.DateOnly))
			return nil
		},
	}
}

func (a *app) saveSession(res *api.AuthResponse, verb string) error {
	if err := a.tokens.Save(res.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintf(a.out, "%s as %s (session valid until %s)\n", verb, res.User.Username, res.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}
