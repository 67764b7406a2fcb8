package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name  string    `gorm:"type:varchar(100);not null"`
	NIM   string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email string    `gorm:"type:varchar(120);uniqueIndex;not null"`
	Role  UserRole  `gorm:"type:varchar(20);default:'user';not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Vlans    []VlanRecord `gorm:"foreignKey:OwnerID"`
	Sessions []Session
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
