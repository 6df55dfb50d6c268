package handlers

import (
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"uxpulse/internal/analytics"
	"uxpulse/internal/config"
	dbpkg "uxpulse/internal/db"
)

type screenMetricsOut struct {
	Screen        string   `json:"screen"`
	WindowHours   int      `json:"window_hours"`
	TotalEvents   int      `json:"total_events"`
	APIErrorCount int      `json:"api_error_count"`
	APIErrorRate  float64  `json:"api_error_rate"`
	P95APIMs      *float64 `json:"p95_api_ms"`
}

// ScreenMetrics summarizes a single labeled screen over the requested
// window. A screen with no events in the window yields zero counts, not an
// error.
func ScreenMetrics(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		name := pathString(ctx, "name")
		if name == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "screen name required")
			return
		}
		hours := config.ClampWindowHours(queryInt(ctx, "window_hours", 24))

		snaps, err := analytics.Aggregate(db, time.Now(), hours, name)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to aggregate metrics")
			return
		}

		out := screenMetricsOut{Screen: name, WindowHours: hours}
		if len(snaps) > 0 {
			s := snaps[0]
			out.TotalEvents = s.TotalEvents
			out.APIErrorCount = s.APIErrorCount
			out.APIErrorRate = s.APIErrorRate
			out.P95APIMs = s.P95APIMs
		}
		jsonResponse(ctx, out)
	}
}

type linkCodeIn struct {
	Screen string `json:"screen"`
	Source string `json:"source"`
}

// LinkCode records which source location renders a screen. Last write wins.
func LinkCode(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload linkCodeIn
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.Screen == "" || payload.Source == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "screen and source are required")
			return
		}

		if err := dbpkg.LinkScreen(db, payload.Screen, payload.Source); err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to link screen")
			return
		}
		jsonResponse(ctx, map[string]string{"screen": payload.Screen, "source": payload.Source})
	}
}
