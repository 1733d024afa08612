package cli

import (
	"github.com/spf13/cobra"

	"github.com/vicabt/library/internal/entrypoint"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP API, the task queue workers and the maintenance schedule.

Configuration is read from the environment (PORT, DATABASE_DRIVER,
DATABASE_PATH, DATABASE_DSN, AUTH_MODE, TASKS_ENABLED, ...).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(opts.load(), opts.Version)
		},
	}
}
