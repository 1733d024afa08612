package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vicabt/library/internal/entities"
	"github.com/vicabt/library/internal/loans"
)

// BooksController serves the read-only catalogue and copy registration.
type BooksController struct {
	books    BookStore
	copies   CopyStore
	activity ActivityLog
}

func NewBooksController(books BookStore, copies CopyStore, activity ActivityLog) *BooksController {
	return &BooksController{
		books:    books,
		copies:   copies,
		activity: activity,
	}
}

// GetAllBooks handles GET /api/books?q=&active=true
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	books, err := controller.books.ListBooks(c.Request.Context(), strings.TrimSpace(c.Query("q")), activeOnly)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	if books == nil {
		books = []entities.Book{}
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook handles GET /api/books/:id, including the book's copies.
func (controller *BooksController) GetBook(c *gin.Context) {
	book, err := controller.books.GetBookByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// GetBookStats handles GET /api/books/stats
func (controller *BooksController) GetBookStats(c *gin.Context) {
	totalBooks, totalCopies, err := controller.books.GetStats(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "book stats")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"total_books":  totalBooks,
		"total_copies": totalCopies,
	})
}

// ListCopies handles GET /api/books/:id/copies
func (controller *BooksController) ListCopies(c *gin.Context) {
	bookID := c.Param("id")
	if _, err := controller.books.GetBookByID(c.Request.Context(), bookID); err != nil {
		respondServiceError(c, err, "list copies")
		return
	}
	list, err := controller.copies.ListByBook(c.Request.Context(), bookID)
	if err != nil {
		respondInternalError(c, err, "list copies")
		return
	}
	if list == nil {
		list = []entities.Copy{}
	}
	c.JSON(http.StatusOK, gin.H{"copies": list, "count": len(list)})
}

type createCopyBody struct {
	Code     string `json:"code"`
	State    string `json:"state"`
	Location string `json:"location"`
}

// CreateCopy handles POST /api/books/:id/copies. Staff only.
func (controller *BooksController) CreateCopy(c *gin.Context) {
	p := principalFrom(c)
	if !p.IsStaff() {
		respondServiceError(c, &loans.ForbiddenError{Action: "register copies"}, "create copy")
		return
	}

	var body createCopyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	state := entities.CopyState(body.State)
	if state == entities.CopyStateLoaned {
		respondBadRequest(c, "a new copy cannot start out loaned")
		return
	}

	cp := &entities.Copy{
		BookID:   c.Param("id"),
		Code:     strings.TrimSpace(body.Code),
		State:    state,
		Location: body.Location,
	}
	if err := controller.copies.CreateCopy(c.Request.Context(), cp); err != nil {
		respondServiceError(c, err, "create copy")
		return
	}

	if controller.activity != nil {
		controller.activity.Record(p.UserID, entities.ActivityCreate, "copy", cp.ID, "Copy "+cp.Code+" registered")
	}
	respondCreated(c, cp)
}
