package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vicabt/library/internal/loans"
)

// DiscrepanciesFoundError is returned by reconcile when the report is not
// empty, so the process can exit non-zero.
type DiscrepanciesFoundError struct {
	Count int
}

func (e *DiscrepanciesFoundError) Error() string {
	return fmt.Sprintf("copy reconciliation found %d discrepancies", e.Count)
}

type reconcileOptions struct {
	JSON bool
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Report copies whose state disagrees with their loans",
		Long: `Compare every copy's state with its open loans and print the
mismatches. Nothing is changed. Exits with status 1 when discrepancies exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the report as JSON")
	return cmd
}

func runReconcile(rootOpts *RootOptions, opts *reconcileOptions, cmd *cobra.Command) error {
	app, err := rootOpts.open()
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Loans.ReconcileCopies(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.JSON {
		if report == nil {
			report = []loans.Discrepancy{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else if len(report) == 0 {
		fmt.Fprintln(out, "All copies are consistent with their loans.")
	} else {
		for _, d := range report {
			code := d.CopyCode
			if code == "" {
				code = d.CopyID
			}
			fmt.Fprintf(out, "%s\t%s", code, d.Problem)
			if len(d.OpenLoanIDs) > 0 {
				fmt.Fprintf(out, "\tloans: %s", strings.Join(d.OpenLoanIDs, ", "))
			}
			fmt.Fprintln(out)
		}
	}

	if len(report) > 0 {
		return &DiscrepanciesFoundError{Count: len(report)}
	}
	return nil
}
