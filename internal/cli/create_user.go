package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vicabt/library/internal/auth"
)

type createUserOptions struct {
	auth.NewUser
	NoToken bool
}

// NewCreateUserCommand creates the create-user command.
func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &createUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user and print an API token",
		Long: `Create an active user. Unless --no-token is given, a bearer token is
issued for the new user and printed once.

Example:
  library create-user --document ADMIN001 --name "Ada Admin" \
    --email ada@example.org --role admin --password 's3cret!'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUser(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DocumentNumber, "document", "", "document number (6-20 letters or digits)")
	cmd.Flags().StringVar(&opts.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Role, "role", "member", "role: admin, librarian or member")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password")
	cmd.Flags().BoolVar(&opts.NoToken, "no-token", false, "do not issue an API token")
	for _, name := range []string{"document", "name", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runCreateUser(rootOpts *RootOptions, opts *createUserOptions, cmd *cobra.Command) error {
	app, err := rootOpts.open()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	user, err := app.Auth.CreateUser(ctx, opts.NewUser)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s %s (%s), id %s\n", user.Role, user.DocumentNumber, user.Email, user.ID)

	if opts.NoToken {
		return nil
	}
	token, err := app.Auth.GenerateToken(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "API token (shown once): %s\n", token)
	return nil
}
