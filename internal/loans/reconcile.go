package loans

import (
	"context"
	"fmt"
	"sort"

	"github.com/vicabt/library/internal/entities"
)

// Discrepancy is a copy whose ledger state does not agree with its loans.
type Discrepancy struct {
	CopyID      string             `json:"copy_id"`
	CopyCode    string             `json:"copy_code,omitempty"`
	State       entities.CopyState `json:"state,omitempty"`
	OpenLoanIDs []string           `json:"open_loan_ids"`
	Problem     string             `json:"problem"`
}

// ReconcileCopies compares each copy's ledger state with the open loans that
// reference it. It only reports; nothing is changed.
func (s *Service) ReconcileCopies(ctx context.Context) ([]Discrepancy, error) {
	repos := s.store.Repositories()

	copies, err := repos.Copies.ListCopies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list copies: %w", err)
	}
	open, err := repos.Loans.ListOpenLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open loans: %w", err)
	}

	openByCopy := make(map[string][]string)
	for _, loan := range open {
		openByCopy[loan.CopyID] = append(openByCopy[loan.CopyID], loan.ID)
	}

	var report []Discrepancy
	for _, c := range copies {
		loanIDs := openByCopy[c.ID]
		delete(openByCopy, c.ID)

		var problem string
		switch {
		case len(loanIDs) > 1:
			problem = fmt.Sprintf("copy has %d open loans", len(loanIDs))
		case c.State == entities.CopyStateLoaned && len(loanIDs) == 0:
			problem = "copy is loaned but has no open loan"
		case c.State != entities.CopyStateLoaned && len(loanIDs) == 1:
			problem = fmt.Sprintf("copy has an open loan but is %s", c.State)
		default:
			continue
		}
		report = append(report, Discrepancy{
			CopyID:      c.ID,
			CopyCode:    c.Code,
			State:       c.State,
			OpenLoanIDs: nonNil(loanIDs),
			Problem:     problem,
		})
	}

	// Whatever is left references copies that no longer exist.
	missing := make([]string, 0, len(openByCopy))
	for copyID := range openByCopy {
		missing = append(missing, copyID)
	}
	sort.Strings(missing)
	for _, copyID := range missing {
		report = append(report, Discrepancy{
			CopyID:      copyID,
			OpenLoanIDs: openByCopy[copyID],
			Problem:     "open loan references a missing copy",
		})
	}

	return report, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
