package handlers

import (
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbpkg "uxpulse/internal/db"
	"uxpulse/internal/metrics"
)

// EventIn is one usage event as reported by a client SDK.
type EventIn struct {
	EventID     string         `json:"event_id"`
	Name        string         `json:"name"`
	TS          time.Time      `json:"ts"`
	UserID      string         `json:"user_id"`
	SessionID   string         `json:"session_id"`
	Platform    string         `json:"platform"`
	AppVersion  string         `json:"app_version"`
	OSVersion   string         `json:"os_version"`
	DeviceModel string         `json:"device_model"`
	Screen      *string        `json:"screen,omitempty"`
	Source      *string        `json:"source,omitempty"`
	Props       map[string]any `json:"props,omitempty"`
}

type eventBatchIn struct {
	Events []EventIn `json:"events"`
}

// IngestEvents stores a batch of events as a single atomic insert and
// reports how many rows were written.
func IngestEvents(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload eventBatchIn
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(payload.Events) == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "no events provided")
			return
		}

		records := make([]dbpkg.Event, 0, len(payload.Events))
		for _, ev := range payload.Events {
			if ev.Name == "" {
				continue
			}

			props := datatypes.JSONMap{}
			for k, v := range ev.Props {
				props[k] = v
			}

			ts := ev.TS
			if ts.IsZero() {
				ts = time.Now()
			}

			records = append(records, dbpkg.Event{
				EventID:     ev.EventID,
				Name:        ev.Name,
				TS:          ts,
				UserID:      ev.UserID,
				SessionID:   ev.SessionID,
				Platform:    ev.Platform,
				AppVersion:  ev.AppVersion,
				OSVersion:   ev.OSVersion,
				DeviceModel: ev.DeviceModel,
				Screen:      ev.Screen,
				Source:      ev.Source,
				Props:       props,
			})
		}

		if len(records) == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "no valid events after validation")
			return
		}

		n, err := dbpkg.InsertEventBatch(db, records)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist events")
			return
		}

		for _, rec := range records {
			metrics.EventIngested(rec.Name, rec.Platform)
		}

		ctx.SetStatusCode(fasthttp.StatusAccepted)
		jsonResponse(ctx, map[string]any{"ingested": n})
	}
}
