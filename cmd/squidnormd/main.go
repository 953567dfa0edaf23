package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/parser"
)

var version = "dev" // Set via ldflags: -X main.version=v1.0.0

// app carries state shared by subcommands.
type app struct {
	logLevel string
	logger   *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "squidnormd",
		Short: "Normalize Squid and squidGuard logs into structured events",
		Long: `squidnormd reads Squid access logs and squidGuard block logs, from files,
syslog or stdin, and turns every line into a vendor-neutral web-proxy event.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Until a config file is read, log to stderr at the requested level.
			l, err := logging.New(config.LoggingConfig{Level: a.logLevel})
			if err != nil {
				return err
			}
			a.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(a),
		newParseCmd(a),
		newParsersCmd(),
		newVersionCmd(),
	)
	return root
}

func newParsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parsers",
		Short: "List available parsers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range parser.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "squidnormd version", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
