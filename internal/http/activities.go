package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	activityRepo "github.com/vicabt/library/internal/database/activity"
	"github.com/vicabt/library/internal/entities"
)

type ActivitiesController struct {
	activity ActivityLog
}

func NewActivitiesController(activity ActivityLog) *ActivitiesController {
	return &ActivitiesController{activity: activity}
}

// GetActivities returns paginated activity entries, newest first.
// GET /api/activities?kind=&entity_type=&entity_id=&actor_id=&limit=&offset=
func (ac *ActivitiesController) GetActivities(c *gin.Context) {
	limit, offset := parsePagination(c, 25, 100)
	filter := activityRepo.Filter{
		ActorID:    c.Query("actor_id"),
		Kind:       entities.ActivityKind(c.Query("kind")),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	}

	entries, total, err := ac.activity.GetActivities(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "get activities")
		return
	}
	if entries == nil {
		entries = []entities.Activity{}
	}
	c.JSON(http.StatusOK, newPaginatedResponse(entries, total, limit, offset))
}
