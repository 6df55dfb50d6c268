// Package analytics turns raw usage events into per-screen metric
// snapshots and runs the two issue detectors (threshold rules and
// model-assisted) over them.
package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"

	"uxpulse/internal/config"
	dbpkg "uxpulse/internal/db"
)

// UnknownScreen is the bucket label for events without a screen.
const UnknownScreen = "(unknown)"

// EndpointStat is the error/success breakdown for one API endpoint on one
// screen.
type EndpointStat struct {
	Endpoint   string `json:"endpoint"`
	APIErrors  int    `json:"api_errors"`
	APISuccess int    `json:"api_success"`
}

// Snapshot summarizes one screen's behavior over one analysis window.
// Derived on demand, never persisted on its own; an issue card may carry it
// as evidence.
type Snapshot struct {
	WindowHours int     `json:"window_hours"`
	Screen      string  `json:"screen"`
	Source      *string `json:"source"`

	TotalEvents           int `json:"total_events"`
	APIErrorCount         int `json:"api_error_count"`
	APIOKCount            int `json:"api_ok_count"`
	ScreenViewCount       int `json:"screen_view_count"`
	AddToCartCount        int `json:"add_to_cart_count"`
	CheckoutCompleteCount int `json:"checkout_complete_count"`

	// APIErrorRate is api_error_count / total_events, rounded to 4
	// decimals. Always defined for an emitted snapshot: a screen only
	// appears here because it had events.
	APIErrorRate float64 `json:"api_error_rate"`

	// P95APIMs is interpolated over the api_ms values present in the
	// window. Nil when no event carried the property; never defaulted
	// to zero.
	P95APIMs *float64 `json:"p95_api_ms"`

	TopEndpoints []EndpointStat `json:"top_endpoints"`
}

// Evidence renders the snapshot as the JSON-shaped map that is persisted
// verbatim on issues and fed to the model.
func (s Snapshot) Evidence() map[string]any {
	endpoints := make([]any, 0, len(s.TopEndpoints))
	for _, ep := range s.TopEndpoints {
		endpoints = append(endpoints, map[string]any{
			"endpoint":    ep.Endpoint,
			"api_errors":  ep.APIErrors,
			"api_success": ep.APISuccess,
		})
	}

	ev := map[string]any{
		"window_hours":            s.WindowHours,
		"screen":                  s.Screen,
		"source":                  nil,
		"total_events":            s.TotalEvents,
		"api_error_count":         s.APIErrorCount,
		"api_ok_count":            s.APIOKCount,
		"screen_view_count":       s.ScreenViewCount,
		"add_to_cart_count":       s.AddToCartCount,
		"checkout_complete_count": s.CheckoutCompleteCount,
		"api_error_rate":          s.APIErrorRate,
		"p95_api_ms":              nil,
		"top_endpoints":           endpoints,
	}
	if s.Source != nil {
		ev["source"] = *s.Source
	}
	if s.P95APIMs != nil {
		ev["p95_api_ms"] = *s.P95APIMs
	}
	return ev
}

// Aggregate computes one snapshot per distinct screen observed in the
// window [now-hours, now), ordered by descending total events. screen, when
// non-empty, restricts the query to that labeled screen. Pure with respect
// to the event store's contents: it only issues read queries.
func Aggregate(db *gorm.DB, now time.Time, hours int, screen string) ([]Snapshot, error) {
	since := now.Add(-time.Duration(hours) * time.Hour)
	events, err := dbpkg.EventsInWindow(db, since, screen)
	if err != nil {
		return nil, err
	}
	return BuildSnapshots(events, hours), nil
}

// BuildSnapshots groups fetched events by screen label and computes the
// per-screen statistics. Split from Aggregate so the statistics are
// testable without a database.
func BuildSnapshots(events []dbpkg.Event, hours int) []Snapshot {
	type bucket struct {
		snap      Snapshot
		latencies []float64
		sourceTS  time.Time
		endpoints map[string]*EndpointStat
	}

	buckets := map[string]*bucket{}
	for i := range events {
		e := &events[i]
		label := UnknownScreen
		if e.Screen != nil && *e.Screen != "" {
			label = *e.Screen
		}

		b := buckets[label]
		if b == nil {
			b = &bucket{
				snap:      Snapshot{WindowHours: hours, Screen: label},
				endpoints: map[string]*EndpointStat{},
			}
			buckets[label] = b
		}

		b.snap.TotalEvents++
		switch e.Name {
		case "api_error":
			b.snap.APIErrorCount++
		case "api_ok":
			b.snap.APIOKCount++
		case "screen_view":
			b.snap.ScreenViewCount++
		case "add_to_cart":
			b.snap.AddToCartCount++
		case "checkout_complete":
			b.snap.CheckoutCompleteCount++
		}

		if e.Source != nil && *e.Source != "" && (b.snap.Source == nil || e.TS.After(b.sourceTS)) {
			src := *e.Source
			b.snap.Source = &src
			b.sourceTS = e.TS
		}

		// Latency contributes only when the property is present: an
		// event without api_ms is excluded from the percentile entirely,
		// not counted as zero.
		if ms, ok := propFloat(e.Props, "api_ms"); ok {
			b.latencies = append(b.latencies, ms)
		}

		if endpoint, ok := propString(e.Props, "endpoint"); ok {
			ep := b.endpoints[endpoint]
			if ep == nil {
				ep = &EndpointStat{Endpoint: endpoint}
				b.endpoints[endpoint] = ep
			}
			switch e.Name {
			case "api_error":
				ep.APIErrors++
			case "api_ok":
				ep.APISuccess++
			}
		}
	}

	snaps := make([]Snapshot, 0, len(buckets))
	for _, b := range buckets {
		b.snap.APIErrorRate = round4(float64(b.snap.APIErrorCount) / float64(b.snap.TotalEvents))
		if len(b.latencies) > 0 {
			sort.Float64s(b.latencies)
			p95 := percentile(b.latencies, config.LatencyPercentile)
			b.snap.P95APIMs = &p95
		}
		b.snap.TopEndpoints = topEndpoints(b.endpoints, config.TopEndpoints)
		snaps = append(snaps, b.snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].TotalEvents != snaps[j].TotalEvents {
			return snaps[i].TotalEvents > snaps[j].TotalEvents
		}
		return snaps[i].Screen < snaps[j].Screen
	})
	return snaps
}

// percentile returns the linearly interpolated p-quantile of an
// ascending-sorted, non-empty slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// topEndpoints ranks by (errors desc, success desc, endpoint asc) and keeps
// the first limit entries.
func topEndpoints(endpoints map[string]*EndpointStat, limit int) []EndpointStat {
	ranked := make([]EndpointStat, 0, len(endpoints))
	for _, ep := range endpoints {
		ranked = append(ranked, *ep)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].APIErrors != ranked[j].APIErrors {
			return ranked[i].APIErrors > ranked[j].APIErrors
		}
		if ranked[i].APISuccess != ranked[j].APISuccess {
			return ranked[i].APISuccess > ranked[j].APISuccess
		}
		return ranked[i].Endpoint < ranked[j].Endpoint
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// propFloat extracts a numeric property, tolerating the value shapes a JSON
// props bag can carry (numbers, json.Number, numeric strings).
func propFloat(props map[string]any, key string) (float64, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func propString(props map[string]any, key string) (string, bool) {
	v, ok := props[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
