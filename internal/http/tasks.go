package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/vicabt/library/internal/tasks"
)

// TaskQueue is the part of tasks.Client the controller uses.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Maintenance is the maintenance scheduler as seen by the tasks API.
type Maintenance interface {
	IsRunning() bool
	NextRuns() map[string]time.Time
	RunNow(ctx context.Context) (map[string]string, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue         TaskQueue
	maintenance   Maintenance
	retentionDays int
}

// NewTasksController creates the controller. maintenance may be nil when no
// scheduler is configured.
func NewTasksController(queue TaskQueue, maintenance Maintenance, retentionDays int) *TasksController {
	return &TasksController{queue: queue, maintenance: maintenance, retentionDays: retentionDays}
}

// MaintenanceStatus reports the schedule of the periodic tasks.
type MaintenanceStatus struct {
	IsRunning bool                 `json:"is_running"`
	NextRuns  map[string]time.Time `json:"next_runs"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	status := MaintenanceStatus{NextRuns: map[string]time.Time{}}
	if tc.maintenance != nil {
		status.IsRunning = tc.maintenance.IsRunning()
		status.NextRuns = tc.maintenance.NextRuns()
	}
	c.JSON(http.StatusOK, gin.H{
		"task_types":  tasks.Types(),
		"maintenance": status,
	})
}

// RunMaintenance handles POST /api/tasks/maintenance/run
func (tc *TasksController) RunMaintenance(c *gin.Context) {
	if tc.maintenance == nil {
		respondError(c, http.StatusServiceUnavailable, "maintenance scheduler not available")
		return
	}
	ids, err := tc.maintenance.RunNow(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "run maintenance")
		return
	}
	respondAccepted(c, "maintenance tasks enqueued", gin.H{"task_ids": ids})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the optional body of POST /api/tasks/:type/run.
type RunTaskRequest struct {
	// RetentionDays overrides the configured retention for cleanup_activity.
	RetentionDays int `json:"retention_days,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.RetentionDays <= 0 {
		req.RetentionDays = tc.retentionDays
	}

	task, err := tasks.New(taskType, req.RetentionDays)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	id, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	respondAccepted(c, "task enqueued", gin.H{
		"task_id": id,
		"type":    taskType,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
