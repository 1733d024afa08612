package copies

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

func setupTestDB(t *testing.T) (*Repository, *entities.Book) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "copies.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}, &entities.Copy{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	book := &entities.Book{Title: "Cien años de soledad", Author: "Gabriel García Márquez", Active: true}
	require.NoError(t, db.Create(book).Error)

	return NewRepository(db), book
}

func createCopy(t *testing.T, repo *Repository, bookID, code string) *entities.Copy {
	t.Helper()
	c := &entities.Copy{BookID: bookID, Code: code}
	require.NoError(t, repo.CreateCopy(context.Background(), c))
	return c
}

func TestRepository_CreateCopy(t *testing.T) {
	repo, book := setupTestDB(t)
	ctx := context.Background()

	c := createCopy(t, repo, book.ID, "CAS-001")
	assert.Len(t, c.ID, 36)
	assert.Equal(t, entities.CopyStateAvailable, c.State)

	t.Run("duplicate code", func(t *testing.T) {
		err := repo.CreateCopy(ctx, &entities.Copy{BookID: book.ID, Code: "CAS-001"})
		assert.True(t, loans.IsConflict(err))
	})

	t.Run("unknown book", func(t *testing.T) {
		err := repo.CreateCopy(ctx, &entities.Copy{BookID: "missing", Code: "CAS-002"})
		assert.True(t, loans.IsNotFound(err))
	})

	t.Run("invalid state", func(t *testing.T) {
		err := repo.CreateCopy(ctx, &entities.Copy{BookID: book.ID, Code: "CAS-003", State: "borrowed"})
		var ve *loans.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestRepository_GetCopy(t *testing.T) {
	repo, book := setupTestDB(t)
	ctx := context.Background()

	created := createCopy(t, repo, book.ID, "CAS-001")

	c, err := repo.GetCopy(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "CAS-001", c.Code)
	require.NotNil(t, c.Book)
	assert.Equal(t, book.Title, c.Book.Title)

	_, err = repo.GetCopy(ctx, "missing")
	var nf *loans.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "copy", nf.Entity)
}

func TestRepository_MarkLoaned(t *testing.T) {
	repo, book := setupTestDB(t)
	ctx := context.Background()
	c := createCopy(t, repo, book.ID, "CAS-001")

	require.NoError(t, repo.MarkLoaned(ctx, c.ID))

	got, err := repo.GetCopy(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.CopyStateLoaned, got.State)

	t.Run("already loaned is a conflict", func(t *testing.T) {
		err := repo.MarkLoaned(ctx, c.ID)
		assert.True(t, loans.IsConflict(err))
	})

	t.Run("missing copy", func(t *testing.T) {
		err := repo.MarkLoaned(ctx, "missing")
		assert.True(t, loans.IsNotFound(err))
	})

	t.Run("damaged copy is a conflict", func(t *testing.T) {
		damaged := createCopy(t, repo, book.ID, "CAS-002")
		require.NoError(t, repo.SetState(ctx, damaged.ID, entities.CopyStateDamaged))

		err := repo.MarkLoaned(ctx, damaged.ID)
		assert.True(t, loans.IsConflict(err))

		got, err := repo.GetCopy(ctx, damaged.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.CopyStateDamaged, got.State)
	})
}

func TestRepository_MarkAvailable(t *testing.T) {
	repo, book := setupTestDB(t)
	ctx := context.Background()
	c := createCopy(t, repo, book.ID, "CAS-001")

	t.Run("available copy is a conflict", func(t *testing.T) {
		err := repo.MarkAvailable(ctx, c.ID)
		var ce *loans.ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Reason, "found available")
	})

	t.Run("loaned copy becomes available", func(t *testing.T) {
		require.NoError(t, repo.MarkLoaned(ctx, c.ID))
		require.NoError(t, repo.MarkAvailable(ctx, c.ID))

		got, err := repo.GetCopy(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.CopyStateAvailable, got.State)
	})

	t.Run("lost copy is a conflict", func(t *testing.T) {
		require.NoError(t, repo.SetState(ctx, c.ID, entities.CopyStateLost))
		err := repo.MarkAvailable(ctx, c.ID)
		assert.True(t, loans.IsConflict(err))
	})
}

func TestRepository_SetState(t *testing.T) {
	repo, book := setupTestDB(t)
	ctx := context.Background()
	c := createCopy(t, repo, book.ID, "CAS-001")

	require.NoError(t, repo.SetState(ctx, c.ID, entities.CopyStateDamaged))
	require.NoError(t, repo.SetState(ctx, c.ID, entities.CopyStateDamaged))

	err := repo.SetState(ctx, c.ID, "borrowed")
	var ve *loans.ValidationError
	assert.ErrorAs(t, err, &ve)

	err = repo.SetState(ctx, "missing", entities.CopyStateAvailable)
	assert.True(t, loans.IsNotFound(err))
}

func TestRepository_ListByBook(t *testing.T) {
	repo, book := setupTestDB(t)
	ctx := context.Background()

	createCopy(t, repo, book.ID, "CAS-002")
	createCopy(t, repo, book.ID, "CAS-001")

	list, err := repo.ListByBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CAS-001", list[0].Code)
	assert.Equal(t, "CAS-002", list[1].Code)

	all, err := repo.ListCopies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepository_DeleteCopy(t *testing.T) {
	repo, book := setupTestDB(t)
	ctx := context.Background()

	c := createCopy(t, repo, book.ID, "CAS-001")
	require.NoError(t, repo.MarkLoaned(ctx, c.ID))

	err := repo.DeleteCopy(ctx, c.ID)
	assert.True(t, loans.IsConflict(err))

	require.NoError(t, repo.MarkAvailable(ctx, c.ID))
	require.NoError(t, repo.DeleteCopy(ctx, c.ID))

	err = repo.DeleteCopy(ctx, c.ID)
	assert.True(t, loans.IsNotFound(err))
}

func TestRepository_UpdateCopy(t *testing.T) {
	repo, book := setupTestDB(t)
	ctx := context.Background()

	c := createCopy(t, repo, book.ID, "CAS-001")
	createCopy(t, repo, book.ID, "CAS-002")
	require.NoError(t, repo.MarkLoaned(ctx, c.ID))

	strPtr := func(s string) *string { return &s }

	t.Run("changes code and location but not state", func(t *testing.T) {
		got, err := repo.UpdateCopy(ctx, c.ID, CopyDetails{Code: strPtr(" CAS-010 "), Location: strPtr("Sala B, estante 4")})
		require.NoError(t, err)
		assert.Equal(t, "CAS-010", got.Code)
		assert.Equal(t, "Sala B, estante 4", got.Location)
		assert.Equal(t, entities.CopyStateLoaned, got.State)
	})

	t.Run("location only keeps the code", func(t *testing.T) {
		got, err := repo.UpdateCopy(ctx, c.ID, CopyDetails{Location: strPtr("Depósito")})
		require.NoError(t, err)
		assert.Equal(t, "CAS-010", got.Code)
		assert.Equal(t, "Depósito", got.Location)
	})

	t.Run("keeping its own code is allowed", func(t *testing.T) {
		_, err := repo.UpdateCopy(ctx, c.ID, CopyDetails{Code: strPtr("CAS-010")})
		assert.NoError(t, err)
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := repo.UpdateCopy(ctx, c.ID, CopyDetails{Code: strPtr("CAS-002")})
		assert.True(t, loans.IsConflict(err))
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := repo.UpdateCopy(ctx, c.ID, CopyDetails{Code: strPtr("  ")})
		assert.True(t, loans.IsValidation(err))
	})

	t.Run("nothing to update", func(t *testing.T) {
		_, err := repo.UpdateCopy(ctx, c.ID, CopyDetails{})
		assert.True(t, loans.IsValidation(err))
	})

	t.Run("missing copy", func(t *testing.T) {
		_, err := repo.UpdateCopy(ctx, "missing", CopyDetails{Location: strPtr("A1")})
		assert.True(t, loans.IsNotFound(err))
	})
}
