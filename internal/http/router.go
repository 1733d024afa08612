package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vicabt/library/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	if len(cfg.HTTP.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.HTTP.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Retry-After"},
			MaxAge:        12 * time.Hour,
		}))
	}

	mw := cfg.AuthMiddleware
	router.Use(mw.Handler())

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	// Loan endpoints
	NewLoansController(cfg.LoanService, cfg.Location).RegisterRoutes(router)

	// Catalog endpoints
	booksController := NewBooksController(cfg.Books, cfg.Copies, cfg.Activity)
	router.GET("/api/books", booksController.GetAllBooks)
	router.GET("/api/books/stats", booksController.GetBookStats)
	router.GET("/api/books/:id", booksController.GetBook)
	router.GET("/api/books/:id/copies", booksController.ListCopies)
	router.POST("/api/books/:id/copies", booksController.CreateCopy)

	copiesController := NewCopiesController(cfg.Copies, cfg.LoanService, cfg.Activity)
	router.GET("/api/copies/reconciliation", mw.RequireStaff(), copiesController.Reconciliation)
	router.GET("/api/copies/:id", copiesController.GetCopy)
	router.PUT("/api/copies/:id", copiesController.UpdateCopy)
	router.PATCH("/api/copies/:id/state", copiesController.SetState)
	router.DELETE("/api/copies/:id", copiesController.DeleteCopy)

	// Staff-only endpoints
	staff := router.Group("/api", mw.RequireStaff())

	activitiesController := NewActivitiesController(cfg.Activity)
	staff.GET("/activities", activitiesController.GetActivities)

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.Maintenance, cfg.RetentionDays)
		staff.GET("/tasks/types", tasksController.ListTaskTypes)
		staff.POST("/tasks/maintenance/run", tasksController.RunMaintenance)
		staff.GET("/tasks/:id", tasksController.GetTaskStatus)
		staff.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
