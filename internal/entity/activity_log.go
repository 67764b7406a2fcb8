package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityAction string

const (
	ActionCreate ActivityAction = "CREATE"
	ActionRead   ActivityAction = "READ"
	ActionUpdate ActivityAction = "UPDATE"
	ActionDelete ActivityAction = "DELETE"
	ActionLogin  ActivityAction = "LOGIN"
	ActionLogout ActivityAction = "LOGOUT"
	ActionExpire ActivityAction = "EXPIRE"
)

type ActivityStatus string

const (
	ActivitySuccess ActivityStatus = "SUCCESS"
	ActivityFailed  ActivityStatus = "FAILED"
)

// ActivityLog is append-only; entries are never mutated or deleted.
type ActivityLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ActorID *uuid.UUID `gorm:"type:uuid;index"`
	Actor   *User      `gorm:"foreignKey:ActorID;constraint:OnDelete:SET NULL"`

	// VlanID is the numeric device VLAN id, kept as a plain value so
	// entries survive deletion of the record they refer to.
	VlanID *int `gorm:"index"`

	Action ActivityAction `gorm:"type:varchar(20);not null"`
	Status ActivityStatus `gorm:"type:varchar(20);not null"`
	Detail string         `gorm:"type:text"`

	IPAddress *string `gorm:"type:varchar(45)"`
	Metadata  datatypes.JSON

	CreatedAt time.Time
}

func (l *ActivityLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
