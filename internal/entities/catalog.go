package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book is the bibliographic record. Loans only read it for display.
type Book struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Title           string    `gorm:"index;size:512;not null" json:"title"`
	ISBN            string    `gorm:"index;size:20" json:"isbn,omitempty"`
	Author          string    `gorm:"size:256" json:"author,omitempty"`
	Publisher       string    `gorm:"size:256" json:"publisher,omitempty"`
	Category        string    `gorm:"size:100" json:"category,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	Active          bool      `json:"active"`
	Copies          []Copy    `gorm:"foreignKey:BookID" json:"copies,omitempty"`
	// SearchText is title, author and ISBN lower-cased by NormalizeSearch.
	SearchText      string    `gorm:"index;size:800" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Book) BeforeSave(tx *gorm.DB) error {
	b.SearchText = BookSearchText(b)
	return nil
}

// BookSearchText builds the value stored in Book.SearchText.
func BookSearchText(b *Book) string {
	return NormalizeSearch(b.Title + " " + b.Author + " " + b.ISBN)
}

// NormalizeSearch lower-cases s with Unicode case folding rules and trims it.
func NormalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CopyState is the physical state of a copy as tracked by the availability ledger.
type CopyState string

const (
	CopyStateAvailable CopyState = "available"
	CopyStateLoaned    CopyState = "loaned"
	CopyStateDamaged   CopyState = "damaged"
	CopyStateLost      CopyState = "lost"
)

func (s CopyState) Valid() bool {
	switch s {
	case CopyStateAvailable, CopyStateLoaned, CopyStateDamaged, CopyStateLost:
		return true
	}
	return false
}

// Copy is a physical instance of a Book.
type Copy struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	BookID    string    `gorm:"index;size:36;not null" json:"book_id"`
	Code      string    `gorm:"uniqueIndex;size:50;not null" json:"code"`
	State     CopyState `gorm:"index;size:20;not null" json:"state"`
	Location  string    `gorm:"size:100" json:"location,omitempty"`
	Book      *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Copy) TableName() string {
	return "copies"
}

func (c *Copy) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
