package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/janhq/sessions-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the sessions table.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.Session{}); err != nil {
		return err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&entities.Session{}).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		log.Warn().Msg("sessions table is empty; run `sessionsctl seed` to load sessions")
	} else {
		log.Debug().Int64("rows", count).Msg("sessions table already seeded")
	}
	return nil
}
