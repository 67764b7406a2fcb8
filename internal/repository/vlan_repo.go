package repository

import (
	"context"
	"errors"
	"time"

	"vlanman/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateVlanID reports that an insert collided with the unique
// index on vlan_id. The insert itself is the serialization point for
// concurrent creates of the same id.
var ErrDuplicateVlanID = errors.New("vlan id already registered")

type VlanRepository interface {
	Create(ctx context.Context, record *entity.VlanRecord) error
	FindByVlanID(ctx context.Context, vlanID int) (*entity.VlanRecord, error)
	List(ctx context.Context) ([]entity.VlanRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.VlanRecord, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, from, to entity.VlanStatus) (bool, error)
	SetSynced(ctx context.Context, id uuid.UUID, synced bool, at time.Time) error
	ListExpired(ctx context.Context, now time.Time) ([]entity.VlanRecord, error)
}

type vlanRepository struct {
	db *gorm.DB
}

func NewVlanRepository(db *gorm.DB) VlanRepository {
	return &vlanRepository{db: db}
}

func (r *vlanRepository) Create(ctx context.Context, record *entity.VlanRecord) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateVlanID
	}
	return err
}

func (r *vlanRepository) FindByVlanID(ctx context.Context, vlanID int) (*entity.VlanRecord, error) {
	var record entity.VlanRecord
	err := r.db.WithContext(ctx).
		Where("vlan_id = ?", vlanID).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &record, err
}

func (r *vlanRepository) List(ctx context.Context) ([]entity.VlanRecord, error) {
	var records []entity.VlanRecord
	err := r.db.WithContext(ctx).
		Order("vlan_id ASC").
		Find(&records).Error
	return records, err
}

func (r *vlanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.VlanRecord, error) {
	var records []entity.VlanRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("vlan_id ASC").
		Find(&records).Error
	return records, err
}

func (r *vlanRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&entity.VlanRecord{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (r *vlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.VlanRecord{}).
		Error
}

// SetStatus transitions status only when the record is still in the
// expected state, so repeated sweeps cannot re-apply a transition.
// Returns whether a row changed.
func (r *vlanRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to entity.VlanStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.VlanRecord{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected > 0, result.Error
}

func (r *vlanRepository) SetSynced(ctx context.Context, id uuid.UUID, synced bool, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.VlanRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"device_synced": synced, "synced_at": &at}).
		Error
}

func (r *vlanRepository) ListExpired(ctx context.Context, now time.Time) ([]entity.VlanRecord, error) {
	var records []entity.VlanRecord
	err := r.db.WithContext(ctx).
		Where("auto_delete = ? AND status = ? AND expires_at <= ?", true, entity.VlanStatusActive, now).
		Find(&records).Error
	return records, err
}
