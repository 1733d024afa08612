package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/vicabt/library/internal/loans"
)

// CopyReconciler compares copy states with open loans.
type CopyReconciler interface {
	ReconcileCopies(ctx context.Context) ([]loans.Discrepancy, error)
}

// DiscrepancyReporter records a reconciliation finding.
type DiscrepancyReporter interface {
	LogReconcile(copyID, problem string, openLoanIDs []string)
}

// ReconcileCopiesTask scans the copy ledger for copies whose state does not
// match their open loans, such as copies left loaned after a failed release.
// It only reports; fixing a copy is a staff decision.
type ReconcileCopiesTask struct{}

func (t ReconcileCopiesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reconcile_copies",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileCopiesProcessor creates a processor function for ReconcileCopiesTask.
func ReconcileCopiesProcessor(reconciler CopyReconciler, reporter DiscrepancyReporter) backlite.QueueProcessor[ReconcileCopiesTask] {
	return func(ctx context.Context, _ ReconcileCopiesTask) error {
		if reconciler == nil {
			return fmt.Errorf("copy reconciler not configured")
		}

		found, err := reconciler.ReconcileCopies(ctx)
		if err != nil {
			return fmt.Errorf("reconcile copies: %w", err)
		}

		for _, d := range found {
			log.Printf("WARNING: copy %s (%s): %s", d.CopyID, d.CopyCode, d.Problem)
			if reporter != nil {
				reporter.LogReconcile(d.CopyID, d.Problem, d.OpenLoanIDs)
			}
		}
		log.Printf("[TASK] Copy reconciliation finished, %d discrepancies", len(found))
		return nil
	}
}

func NewReconcileCopiesQueue(reconciler CopyReconciler, reporter DiscrepancyReporter) backlite.Queue {
	return backlite.NewQueue(ReconcileCopiesProcessor(reconciler, reporter))
}
