package handlers

import (
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "uxpulse/internal/db"
)

const maxRecentEvents = 500

type eventOut struct {
	ID        uint           `json:"id"`
	EventID   string         `json:"event_id,omitempty"`
	Name      string         `json:"name"`
	TS        time.Time      `json:"ts"`
	UserID    string         `json:"user_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Platform  string         `json:"platform,omitempty"`
	Screen    *string        `json:"screen"`
	Source    *string        `json:"source"`
	Props     map[string]any `json:"props"`
}

// RecentEvents lists the newest stored events, optionally filtered by
// screen. This is a debugging surface for checking that an SDK is
// actually reaching the collector; it is not part of the analysis flow.
func RecentEvents(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		limit := queryInt(ctx, "limit", 50)
		if limit > maxRecentEvents {
			limit = maxRecentEvents
		}
		screen := string(ctx.QueryArgs().Peek("screen"))

		events, err := dbpkg.RecentEvents(db, limit, screen)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load events")
			return
		}

		out := make([]eventOut, 0, len(events))
		for _, e := range events {
			out = append(out, eventOut{
				ID:        e.ID,
				EventID:   e.EventID,
				Name:      e.Name,
				TS:        e.TS,
				UserID:    e.UserID,
				SessionID: e.SessionID,
				Platform:  e.Platform,
				Screen:    e.Screen,
				Source:    e.Source,
				Props:     e.Props,
			})
		}
		jsonResponse(ctx, map[string]any{"events": out})
	}
}
