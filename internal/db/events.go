package db

import (
	"time"

	"gorm.io/gorm"
)

// InsertEventBatch persists a batch of events as one multi-row insert and
// returns the number of rows written. The insert is atomic: either every
// event in the batch commits or none do.
func InsertEventBatch(db *gorm.DB, events []Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if err := db.Create(&events).Error; err != nil {
		return 0, err
	}
	return len(events), nil
}

// EventsInWindow returns all events with ts >= since, optionally restricted
// to a single screen label (raw column equality, so the filter never matches
// the unlabeled bucket). Read-only; only the columns the aggregator needs
// are selected.
func EventsInWindow(db *gorm.DB, since time.Time, screen string) ([]Event, error) {
	q := db.Model(&Event{}).
		Select("name", "ts", "screen", "source", "props").
		Where("ts >= ?", since)
	if screen != "" {
		q = q.Where("screen = ?", screen)
	}

	var events []Event
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// RecentEvents returns the newest events first, optionally filtered by
// screen. Used by the debug listing endpoint to verify SDK wiring.
func RecentEvents(db *gorm.DB, limit int, screen string) ([]Event, error) {
	q := db.Model(&Event{}).Order("ts DESC").Limit(limit)
	if screen != "" {
		q = q.Where("screen = ?", screen)
	}

	var events []Event
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
