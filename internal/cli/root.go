// Package cli implements the pwagen command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pwaspark/pwagen/internal/conf"
	"github.com/pwaspark/pwagen/internal/logger"
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	server     string
	token      string
}

// NewRootCommand builds the pwagen command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "pwagen",
		Short: "Generate web app manifests and service workers",
		Long: "pwagen turns an app description into the files a browser needs to install\n" +
			"it as a Progressive Web App: manifest.json, a caching service worker and a\n" +
			"bootstrap index.html. It can run as an HTTP service that stores configurations\n" +
			"per user and hosts them under /pwas/<id>/.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "settings file (default: search for config.yaml)")
	root.PersistentFlags().StringVar(&opts.server, "server", "", "pwagen server URL for remote commands (default: server.baseurl)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PWAGEN_TOKEN"), "bearer token for remote commands")

	root.AddCommand(
		newServeCommand(opts),
		newGenerateCommand(),
		newPWAsCommand(opts),
		newTokenCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

func (o *globalOptions) loadSettings() (*conf.Settings, error) {
	return conf.Load(o.configFile)
}

// newLogger builds the process logger described by settings.
func newLogger(main conf.MainSettings) logger.Logger {
	level := logger.ParseLevel(main.LogLevel)
	if main.LogFormat == "json" {
		return logger.NewSlogLogger(os.Stderr, level, nil)
	}
	return logger.NewConsoleLogger(os.Stderr, level)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pwagen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pwagen", Version)
		},
	}
}
