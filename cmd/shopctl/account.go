package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/forms"
	"coffeeshop/internal/models"
	"coffeeshop/internal/shop"
)

func registerCmd(a *app) *cobra.Command {
	var form forms.RegisterForm
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(2),
		RunE: a.withShop(func(ctx context.Context, cmd *cobra.Command, args []string, s *shop.Shop) error {
			form.Username, form.Email = args[0], args[1]
			if !cmd.Flags().Changed("confirm") {
				form.ConfirmPassword = form.Password
			}
			f, err := form.Validate()
			if err != nil {
				return err
			}
			u, err := s.Session.Register(ctx, f.Username, f.Email, f.Password)
			if err != nil {
				return err
			}
			a.done("welcome, %s", u.Username)
			return a.print(u, func(io.Writer) {})
		}),
	}
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm", "", "password confirmation (defaults to --password)")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var (
		form  forms.LoginForm
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in to an account",
		Args:  cobra.ExactArgs(1),
		RunE: a.withShop(func(ctx context.Context, _ *cobra.Command, args []string, s *shop.Shop) error {
			form.Email = args[0]
			f, err := form.Validate()
			if err != nil {
				return err
			}
			var u models.User
			if admin {
				u, err = s.Session.AdminLogin(ctx, f.Email, f.Password)
			} else {
				u, err = s.Session.Login(ctx, f.Email, f.Password)
			}
			if err != nil {
				return err
			}
			a.done("logged in as %s", u.Email)
			return a.print(u, func(io.Writer) {})
		}),
	}
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")
	cmd.Flags().BoolVar(&admin, "admin", false, "require an administrator account")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(ctx context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			if err := s.Session.Logout(ctx); err != nil {
				return err
			}
			a.done("logged out")
			return nil
		}),
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(_ context.Context, _ *cobra.Command, _ []string, s *shop.Shop) error {
			u, ok := s.Session.Current()
			if !ok {
				return models.ErrUnauthenticated
			}
			return a.print(u, func(w io.Writer) {
				fmt.Fprintf(w, "%s <%s> (%s)\n", u.Username, u.Email, u.Role)
			})
		}),
	}
}

func profileCmd(a *app) *cobra.Command {
	var form forms.ProfileForm
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change username, email or password of the logged-in account",
		Args:  cobra.NoArgs,
		RunE: a.withShop(func(ctx context.Context, cmd *cobra.Command, _ []string, s *shop.Shop) error {
			cur, ok := s.Session.Current()
			if !ok {
				return models.ErrUnauthenticated
			}
			if !cmd.Flags().Changed("username") {
				form.Username = cur.Username
			}
			if !cmd.Flags().Changed("email") {
				form.Email = cur.Email
			}
			upd, err := form.Update()
			if err != nil {
				return err
			}
			u, err := s.Session.UpdateProfile(ctx, upd)
			if err != nil {
				return err
			}
			a.done("profile updated")
			return a.print(u, func(io.Writer) {})
		}),
	}
	fl := cmd.Flags()
	fl.StringVar(&form.Username, "username", "", "new username")
	fl.StringVar(&form.Email, "email", "", "new email")
	fl.StringVar(&form.CurrentPassword, "current-password", "", "current password, required with --new-password")
	fl.StringVar(&form.NewPassword, "new-password", "", "new password")
	return cmd
}

// tokenCmd prints a bearer token that opens this profile over HTTP.
func tokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print an API token for the profile",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			token, err := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL).Issue(a.profile)
			if err != nil {
				return err
			}
			return a.print(map[string]string{"profile_id": a.profile, "token": token}, func(w io.Writer) {
				fmt.Fprintln(w, token)
			})
		},
	}
}
