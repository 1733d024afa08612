package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vicabt/library/internal/auth"
	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/entrypoint"
	"github.com/vicabt/library/internal/loans"
)

// Fixture is the YAML document loaded by the seed command.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Books []FixtureBook `yaml:"books"`
}

type FixtureUser struct {
	DocumentNumber string `yaml:"document_number"`
	FullName       string `yaml:"full_name"`
	Email          string `yaml:"email"`
	Phone          string `yaml:"phone"`
	Role           string `yaml:"role"`
	Password       string `yaml:"password"`
}

type FixtureBook struct {
	Title           string        `yaml:"title"`
	ISBN            string        `yaml:"isbn"`
	Author          string        `yaml:"author"`
	Publisher       string        `yaml:"publisher"`
	Category        string        `yaml:"category"`
	PublicationYear int           `yaml:"publication_year"`
	Active          *bool         `yaml:"active"`
	Copies          []FixtureCopy `yaml:"copies"`
}

type FixtureCopy struct {
	Code     string `yaml:"code"`
	State    string `yaml:"state"`
	Location string `yaml:"location"`
}

// SeedResult counts what a seed run created and skipped.
type SeedResult struct {
	UsersCreated  int
	UsersSkipped  int
	BooksCreated  int
	BooksSkipped  int
	CopiesCreated int
	CopiesSkipped int
}

// LoadFixture parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &f, nil
}

type seedOptions struct {
	File string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, books and copies from a YAML fixture",
		Long: `Load users, books and copies from a YAML fixture.

Existing records are skipped: users by document number, books by ISBN
and copies by code. Books without an ISBN are inserted on every run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := LoadFixture(opts.File)
			if err != nil {
				return err
			}

			app, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := Seed(cmd.Context(), app, fixture)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Users: %d created, %d skipped\nBooks: %d created, %d skipped\nCopies: %d created, %d skipped\n",
				result.UsersCreated, result.UsersSkipped,
				result.BooksCreated, result.BooksSkipped,
				result.CopiesCreated, result.CopiesSkipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "fixture file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// Seed inserts the fixture records that do not exist yet.
func Seed(ctx context.Context, app *entrypoint.App, f *Fixture) (SeedResult, error) {
	var result SeedResult

	for _, u := range f.Users {
		if _, err := app.Users.GetUserByDocumentNumber(ctx, u.DocumentNumber); err == nil {
			result.UsersSkipped++
			continue
		} else if !loans.IsNotFound(err) {
			return result, err
		}

		_, err := app.Auth.CreateUser(ctx, auth.NewUser{
			DocumentNumber: u.DocumentNumber,
			FullName:       u.FullName,
			Email:          u.Email,
			Phone:          u.Phone,
			Role:           u.Role,
			Password:       u.Password,
		})
		if err != nil {
			return result, fmt.Errorf("user %s: %w", u.DocumentNumber, err)
		}
		result.UsersCreated++
	}

	for _, b := range f.Books {
		book, err := seedBook(ctx, app, b, &result)
		if err != nil {
			return result, err
		}

		for _, c := range b.Copies {
			cp := &entities.Copy{
				BookID:   book.ID,
				Code:     c.Code,
				State:    entities.CopyState(c.State),
				Location: c.Location,
			}
			if cp.State == entities.CopyStateLoaned {
				return result, fmt.Errorf("copy %s: fixtures cannot create loaned copies", c.Code)
			}
			err := app.Copies.CreateCopy(ctx, cp)
			switch {
			case err == nil:
				result.CopiesCreated++
			case loans.IsConflict(err):
				result.CopiesSkipped++
			default:
				return result, fmt.Errorf("copy %s: %w", c.Code, err)
			}
		}
	}

	return result, nil
}

func seedBook(ctx context.Context, app *entrypoint.App, b FixtureBook, result *SeedResult) (*entities.Book, error) {
	if b.ISBN != "" {
		existing, err := app.Books.FindBookByISBN(ctx, b.ISBN)
		if err == nil {
			result.BooksSkipped++
			return existing, nil
		}
		if !loans.IsNotFound(err) {
			return nil, err
		}
	}

	book := &entities.Book{
		Title:           b.Title,
		ISBN:            b.ISBN,
		Author:          b.Author,
		Publisher:       b.Publisher,
		Category:        b.Category,
		PublicationYear: b.PublicationYear,
		Active:          b.Active == nil || *b.Active,
	}
	if err := app.Books.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("book %q: %w", b.Title, err)
	}
	result.BooksCreated++
	return book, nil
}
