// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations, loan store
//	├── books/           # Catalogue of books
//	├── copies/          # Copy availability ledger
//	├── loans/           # Loan records
//	├── users/           # User directory and API tokens
//	└── activity/        # Activity log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	copiesRepo := copies.NewRepository(db.DB)
//	copy, err := copiesRepo.GetCopy(ctx, id)
//
// # Transactions
//
// The loan service works through LoanStore, which runs a callback inside a
// gorm transaction with every repository bound to the same tx:
//
//	store := db.LoanStore()
//	err := store.InTx(ctx, func(r loans.Repositories) error {
//		return r.Copies.MarkLoaned(ctx, copyID)
//	})
package database
