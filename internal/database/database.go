package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vicabt/library/internal/config"
	"github.com/vicabt/library/internal/database/books"
	"github.com/vicabt/library/internal/database/copies"
	loanrepo "github.com/vicabt/library/internal/database/loans"
	"github.com/vicabt/library/internal/database/users"
	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Copy{},
		&entities.Loan{},
		&entities.Activity{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if n, err := books.NewRepository(db).RefreshSearchText(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to index books: %w", err)
	} else if n > 0 {
		log.Printf("Indexed %d books for search", n)
	}

	log.Printf("Database initialized successfully (driver: %s)", driverName(cfg))

	return &Database{DB: db}, nil
}

func openDialector(cfg config.Database) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case config.DatabaseDriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is required for the sqlite driver")
		}
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DatabaseDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func driverName(cfg config.Database) string {
	if cfg.Driver == "" {
		return config.DatabaseDriverSQLite
	}
	return cfg.Driver
}

// sqliteDSN takes the write lock when a transaction begins and waits on a
// locked database instead of failing, so loan transactions serialize.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal=WAL&_txlock=immediate"
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// LoanStore returns the transactional store used by the loan service.
func (d *Database) LoanStore() *LoanStore {
	return &LoanStore{db: d.DB}
}

// LoanStore hands out repositories bound either to the shared connection
// pool or to a single transaction.
type LoanStore struct {
	db *gorm.DB
}

func NewLoanStore(db *gorm.DB) *LoanStore {
	return &LoanStore{db: db}
}

func (s *LoanStore) Repositories() loans.Repositories {
	return RepositoriesFor(s.db)
}

func (s *LoanStore) InTx(ctx context.Context, fn func(loans.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(RepositoriesFor(tx))
	})
}

// RepositoriesFor builds the loan service repositories on top of db, which
// may be a transaction handle.
func RepositoriesFor(db *gorm.DB) loans.Repositories {
	return loans.Repositories{
		Users:  users.NewRepository(db),
		Copies: copies.NewRepository(db),
		Loans:  loanrepo.NewRepository(db),
	}
}
