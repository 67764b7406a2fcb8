package repository

import (
	"context"

	"vlanman/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityLogRepository interface {
	Log(ctx context.Context, log *entity.ActivityLog) error
	ListRecent(ctx context.Context, limit int) ([]entity.ActivityLog, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]entity.ActivityLog, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Log(ctx context.Context, log *entity.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityLogRepository) ListRecent(ctx context.Context, limit int) ([]entity.ActivityLog, error) {
	var entries []entity.ActivityLog
	if limit <= 0 {
		limit = 50
	}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *activityLogRepository) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]entity.ActivityLog, error) {
	var entries []entity.ActivityLog
	if limit <= 0 {
		limit = 50
	}
	err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
