package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vicabt/library/internal/auth"
	"github.com/vicabt/library/internal/config"
	http_controllers "github.com/vicabt/library/internal/http"
	"github.com/vicabt/library/internal/scheduler"
	"github.com/vicabt/library/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then drain within the configured timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after the last request has been served.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) error {
	log.Printf("Starting Library v%s", version)

	app, err := Open(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	// Initialize task queue and maintenance schedule if enabled
	var taskClient *tasks.Client
	var taskQueue http_controllers.TaskQueue
	var maintenance *scheduler.MaintenanceScheduler
	var maintenanceAPI http_controllers.Maintenance
	taskCtx, taskCtxCancel := context.WithCancel(context.Background())
	defer taskCtxCancel()

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewCleanupActivityQueue(app.Activity),
			tasks.NewReconcileCopiesQueue(app.Loans, app.Activity),
		)
		go taskClient.Start(taskCtx)
		taskQueue = taskClient

		maintenance = scheduler.NewMaintenanceScheduler(taskClient, cfg.Maintenance, cfg.Activity.RetentionDays)
		if err := maintenance.Start(taskCtx); err != nil {
			return err
		}
		maintenanceAPI = maintenance
	} else if cfg.Maintenance.Enabled {
		log.Printf("WARNING: maintenance schedule is enabled but the task queue is not; set TASKS_ENABLED=true to run it")
	}

	authMiddleware := auth.NewMiddleware(app.Auth, cfg.Auth)
	authController := auth.NewAuthController(
		app.Auth,
		auth.NewRateLimiter(auth.RateLimitConfigFrom(cfg.Auth)),
		app.Activity,
	)
	defer authController.Stop()

	if app.Auth.IsAuthEnabled() {
		log.Printf("Authentication mode: token")
		if list, err := app.Users.ListUsers(context.Background()); err == nil && len(list) == 0 {
			log.Printf("No users found. Run '%s create-user --role admin' to create an administrator.", os.Args[0])
		}
	} else {
		log.Printf("WARNING: Authentication mode: none (every request acts as an administrator)")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       app.DB,
		LoanService:    app.Loans,
		Books:          app.Books,
		Copies:         app.Copies,
		Activity:       app.Activity,
		AuthMiddleware: authMiddleware,
		AuthController: authController,
		TaskQueue:      taskQueue,
		Maintenance:    maintenanceAPI,
		RetentionDays:  cfg.Activity.RetentionDays,
		HTTP:           cfg.HTTP,
		Location:       app.Location,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		taskCtxCancel()
	}

	Serve(router, cfg, onShutdown)
	return nil
}
