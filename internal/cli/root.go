package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vicabt/library/internal/config"
	"github.com/vicabt/library/internal/entrypoint"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DatabasePath string
	Version      string
}

// load reads the environment configuration and applies flag overrides.
func (o *RootOptions) load() *config.Config {
	cfg := config.NewConfig()
	if o.DatabasePath != "" {
		cfg.Database.Path = o.DatabasePath
	}
	return cfg
}

func (o *RootOptions) open() (*entrypoint.App, error) {
	return entrypoint.Open(o.load())
}

// NewRootCommand creates the root command. Without a subcommand it starts
// the HTTP server.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{Version: version}

	serve := NewServeCommand(opts)
	cmd := &cobra.Command{
		Use:           "library",
		Short:         "Library loan service",
		Long:          "Backend for a library catalogue: copies, loans, users and the activity log.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.PersistentFlags().StringVar(&opts.DatabasePath, "database-path", "", "sqlite database file (overrides DATABASE_PATH)")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))

	return cmd
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var found *DiscrepanciesFoundError
	if errors.As(err, &found) {
		return 1
	}
	if err != nil {
		return 2
	}
	return 0
}
