package config

import (
	"errors"
	"fmt"

	"fleetadmin/internal/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectionDb(cfg Config, logger logrus.FieldLogger) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseURL,
		PreferSimpleProtocol: true, // Disable prepared statements completely
	}), &gorm.Config{
		PrepareStmt: false,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&entity.SystemUser{}, &entity.PasswordResetOTP{}, &entity.AuditLog{}); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	logger.Info("success connect to db")
	return db, nil
}
