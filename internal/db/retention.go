package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"uxpulse/internal/logging"
)

// PruneEventsBefore deletes raw events with a timestamp strictly before
// cutoff and reports how many rows went away. Issues are never pruned;
// they carry their evidence snapshot and stay useful after the raw
// events expire.
func PruneEventsBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("ts < ?", cutoff).Delete(&Event{})
	return res.RowsAffected, res.Error
}

// StartRetentionWorker launches a background goroutine that prunes raw
// events older than the given number of days, once at startup and then
// daily. A non-positive retentionDays disables the worker.
func StartRetentionWorker(db *gorm.DB, retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	go func() {
		log := logging.L()
		age := time.Duration(retentionDays) * 24 * time.Hour

		prune := func(now time.Time) {
			n, err := PruneEventsBefore(db, now.Add(-age))
			if err != nil {
				log.Error("event retention failed", zap.Error(err))
				return
			}
			if n > 0 {
				log.Info("event retention finished", zap.Int64("deleted", n), zap.Int("retention_days", retentionDays))
			}
		}

		prune(time.Now())

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for t := range ticker.C {
			prune(t)
		}
	}()
}
