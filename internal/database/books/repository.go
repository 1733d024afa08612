// Package books provides database operations for the book catalogue.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(ctx, id)
package books

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookByID retrieves a book with its copies.
func (r *Repository) GetBookByID(ctx context.Context, id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Preload("Copies", func(db *gorm.DB) *gorm.DB {
		return db.Order("code ASC")
	}).Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loans.NewNotFoundError("book", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// ListBooks returns books ordered by title. An empty query lists all of them;
// otherwise title, author and ISBN are matched case-insensitively, accented
// letters included. Matching runs against Book.SearchText, never SQL LOWER().
func (r *Repository) ListBooks(ctx context.Context, query string, activeOnly bool) ([]entities.Book, error) {
	var list []entities.Book
	q := r.db.WithContext(ctx).Order("title ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if query = entities.NormalizeSearch(query); query != "" {
		q = q.Where("search_text LIKE ?", "%"+query+"%")
	}
	err := q.Find(&list).Error
	return list, err
}

// RefreshSearchText fills the search column of books stored before it
// existed. It returns the number of books updated.
func (r *Repository) RefreshSearchText(ctx context.Context) (int, error) {
	var stale []entities.Book
	err := r.db.WithContext(ctx).Where("search_text = ? OR search_text IS NULL", "").Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list books: %w", err)
	}
	for i := range stale {
		err := r.db.WithContext(ctx).Model(&entities.Book{}).
			Where("id = ?", stale[i].ID).
			UpdateColumn("search_text", entities.BookSearchText(&stale[i])).Error
		if err != nil {
			return i, fmt.Errorf("failed to update book %s: %w", stale[i].ID, err)
		}
	}
	return len(stale), nil
}

// CreateBook inserts a book without its copies.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	if book.Title == "" {
		return loans.NewValidationError("title is required")
	}
	if err := r.db.WithContext(ctx).Omit("Copies").Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// FindBookByISBN returns the book with the given ISBN.
func (r *Repository) FindBookByISBN(ctx context.Context, isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loans.NewNotFoundError("book", isbn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	return &book, nil
}

// GetStats returns catalogue counters for the dashboard.
func (r *Repository) GetStats(ctx context.Context) (totalBooks int64, totalCopies int64, err error) {
	err = r.db.WithContext(ctx).Model(&entities.Book{}).Count(&totalBooks).Error
	if err != nil {
		return
	}
	err = r.db.WithContext(ctx).Model(&entities.Copy{}).Count(&totalCopies).Error
	return
}
