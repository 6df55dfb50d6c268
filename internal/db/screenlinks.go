package db

import (
	"time"

	"gorm.io/gorm"
)

// LinkScreen records which source location renders a screen. One row per
// screen; repeated links overwrite the previous source (last write wins).
func LinkScreen(db *gorm.DB, screen, source string) error {
	var existing ScreenLink
	err := db.Where("screen = ?", screen).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return db.Create(&ScreenLink{Screen: screen, Source: source, UpdatedAt: time.Now()}).Error
	}
	if err != nil {
		return err
	}

	existing.Source = source
	existing.UpdatedAt = time.Now()
	return db.Save(&existing).Error
}
