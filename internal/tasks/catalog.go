package tasks

import (
	"fmt"

	"github.com/mikestefanello/backlite"
)

// TypeInfo describes a task type that can be triggered on demand.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Types lists the task types accepted by New.
func Types() []TypeInfo {
	return []TypeInfo{
		{
			Type:        CleanupActivityTask{}.Config().Name,
			Description: "Delete activity log entries older than the retention period",
		},
		{
			Type:        ReconcileCopiesTask{}.Config().Name,
			Description: "Report copies whose state does not match their open loans",
		},
	}
}

// New builds a task by type name. retentionDays only applies to
// cleanup_activity.
func New(taskType string, retentionDays int) (backlite.Task, error) {
	switch taskType {
	case CleanupActivityTask{}.Config().Name:
		return CleanupActivityTask{RetentionDays: retentionDays}, nil
	case ReconcileCopiesTask{}.Config().Name:
		return ReconcileCopiesTask{}, nil
	}
	return nil, fmt.Errorf("unknown task type: %s", taskType)
}
