package activity

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vicabt/library/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows an activity listing. Zero values match everything.
type Filter struct {
	ActorID    string
	Kind       entities.ActivityKind
	EntityType string
	EntityID   string
}

// LogActivity saves an activity entry to the database.
func (r *Repository) LogActivity(ctx context.Context, entry *entities.Activity) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetActivities retrieves paginated activity entries, most recent first.
func (r *Repository) GetActivities(ctx context.Context, filter Filter, limit, offset int) ([]entities.Activity, int64, error) {
	var entries []entities.Activity
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Activity{})
	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}

// DeleteOlderThan removes entries created before the cutoff and returns how
// many were deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&entities.Activity{})
	return result.RowsAffected, result.Error
}
