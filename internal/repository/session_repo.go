package repository

import (
	"context"
	"errors"
	"time"

	"vlanman/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindLive(ctx context.Context, sessionID uuid.UUID, now time.Time) (*entity.Session, error)
	Touch(ctx context.Context, sessionID uuid.UUID, now time.Time, timeout time.Duration) error
	Revoke(ctx context.Context, sessionID uuid.UUID, now time.Time) error
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s *entity.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// FindLive treats an expired session as absent even before the sweeper
// has removed the row.
func (r *sessionRepository) FindLive(ctx context.Context, sessionID uuid.UUID, now time.Time) (*entity.Session, error) {
	var session entity.Session
	err := r.db.WithContext(ctx).
		Where("id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, now).
		First(&session).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *sessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, now time.Time, timeout time.Duration) error {
	return r.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"last_activity": now,
			"expires_at":    now.Add(timeout),
		}).
		Error
}

func (r *sessionRepository) Revoke(ctx context.Context, sessionID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("id = ?", sessionID).
		Update("revoked_at", &now).
		Error
}

func (r *sessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&entity.Session{})
	return result.RowsAffected, result.Error
}
