package config

import (
	"fmt"

	"vlanman/internal/entity"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectionDb(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		// Duplicate-key inserts must surface as gorm.ErrDuplicatedKey:
		// the vlan_id unique index is the conflict arbiter for
		// concurrent creates.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.VlanRecord{},
		&entity.Session{},
		&entity.ActivityLog{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
