package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the szymon application
var rootCmd = &cobra.Command{
	Use:   "szymon",
	Short: "Personal assistant gateway for Google Tasks and Google Calendar",
	Long: `szymon serves a small web frontend and a REST API that proxies Google Tasks
and Google Calendar behind one shared Google login.

Configuration is read from a .env file, the process environment and flags,
in increasing order of precedence.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "szymon version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
