package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/szymon/internal/config"
	"github.com/teemow/szymon/internal/google"
)

func newAuthCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect or remove the stored Google credential",
		Long: `Inspect or remove the Google credential shared by the Tasks and Calendar
endpoints. Logging in requires a browser and is done through the running server at
/api/tasks/auth/login.`,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Path to the .env file to load")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether Google is configured and authenticated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(config.New(), envFile)
			if err != nil {
				return err
			}
			return printAuthStatus(cmd.OutOrStdout(), settings)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Delete the stored Google token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(config.New(), envFile)
			if err != nil {
				return err
			}
			manager, err := newManager(settings)
			if err != nil {
				return err
			}
			if err := manager.Logout(); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", settings.GoogleTokenPath)
			return nil
		},
	})

	return cmd
}

func printAuthStatus(w io.Writer, settings *config.Settings) error {
	manager, err := newManager(settings)
	if errors.Is(err, google.ErrNotConfigured) {
		fmt.Fprintln(w, "configured:    false")
		fmt.Fprintln(w, "authenticated: false")
		fmt.Fprintln(w, "Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in .env")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "configured:    true")
	fmt.Fprintf(w, "authenticated: %t\n", manager.IsAuthenticated())
	fmt.Fprintf(w, "token file:    %s\n", settings.GoogleTokenPath)
	fmt.Fprintf(w, "redirect URI:  %s\n", settings.RedirectURL())
	return nil
}
