package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VlanStatus string

const (
	VlanStatusActive   VlanStatus = "active"
	VlanStatusInactive VlanStatus = "inactive"
	VlanStatusExpired  VlanStatus = "expired"
)

// VlanRecord is the local record of a VLAN configured on the managed
// device. VlanID is unique across live records; the row is removed
// entirely when the VLAN is deleted from the device.
type VlanRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	VlanID int       `gorm:"uniqueIndex;not null"`

	Name        string `gorm:"type:varchar(32);not null"`
	Description string `gorm:"type:varchar(255)"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Owner   User      `gorm:"foreignKey:OwnerID"`

	SubnetMask string `gorm:"type:varchar(18);default:'255.255.255.0'"`
	MaxHosts   *int
	HostCount  int `gorm:"default:0"`

	Status     VlanStatus `gorm:"type:varchar(20);default:'active';not null"`
	AutoDelete bool       `gorm:"default:false"`
	ExpiresAt  *time.Time

	// DeviceSynced is true iff the last confirmed device command for
	// this record succeeded and no contradicting read happened since.
	DeviceSynced bool `gorm:"default:false"`
	SyncedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v *VlanRecord) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
