package db

import (
	"time"

	"gorm.io/datatypes"
)

// Event is a single immutable product-usage fact as reported by a client
// SDK. Rows are never updated; they are inserted once and eventually
// removed by the retention worker.
type Event struct {
	ID uint `gorm:"primaryKey"`

	// EventID is the caller-supplied identifier. Indexed but not unique:
	// client retries may legitimately resend the same id.
	EventID string `gorm:"size:64;index"`

	// Name is the event kind, e.g. api_error, api_ok, screen_view,
	// add_to_cart, checkout_complete. Arbitrary other names are allowed.
	Name string `gorm:"size:64;index"`

	// TS is the client-side event timestamp.
	TS time.Time `gorm:"index;index:ix_events_name_ts,priority:2"`

	UserID    string `gorm:"size:128;index"`
	SessionID string `gorm:"size:128;index"`

	Platform    string `gorm:"size:16;index"`
	AppVersion  string `gorm:"size:32;index"`
	OSVersion   string `gorm:"size:32;index"`
	DeviceModel string `gorm:"size:64;index"`

	// Screen is the UI screen the event happened on, if the SDK knew it.
	Screen *string `gorm:"size:128;index"`

	// Source is a free-text label pointing at the code location that
	// produced the event.
	Source *string `gorm:"size:256"`

	// Props holds arbitrary key/value pairs. Only api_ms (numeric latency)
	// and endpoint (string) carry conventional meaning; everything else is
	// opaque to the service.
	Props datatypes.JSONMap `gorm:"type:json"`
}

// Issue is a deduplicated recommendation card produced by one of the
// detectors. Key is the identity of "this specific finding": upserting an
// existing key replaces every other field, so the table always reflects
// the most recent run for that key.
type Issue struct {
	ID uint `gorm:"primaryKey"`

	Key      string `gorm:"size:128;uniqueIndex"`
	Title    string `gorm:"size:256"`
	Category string `gorm:"size:32"` // ux, performance, reliability, funnel
	Impact   string `gorm:"size:16"` // high, medium, low

	// Confidence is in [0,1].
	Confidence float64

	Screen *string `gorm:"size:128;index"`
	Source *string `gorm:"size:256"`

	// Evidence is the metrics snapshot that justified the issue, persisted
	// verbatim for audit.
	Evidence datatypes.JSONMap `gorm:"type:json"`

	// Recommendation carries hypothesis, suggested_fixes and an
	// experiment sketch.
	Recommendation datatypes.JSONMap `gorm:"type:json"`

	CreatedAt time.Time `gorm:"index"`
}

// ScreenLink maps a screen label to the source location that renders it.
// Unique on screen; last write wins.
type ScreenLink struct {
	ID uint `gorm:"primaryKey"`

	Screen    string `gorm:"size:128;uniqueIndex"`
	Source    string `gorm:"size:256"`
	UpdatedAt time.Time
}
