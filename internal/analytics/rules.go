package analytics

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"

	"uxpulse/internal/config"
	dbpkg "uxpulse/internal/db"
)

// Impact thresholds for the rule-based detector. Boundary-inclusive: an
// error rate of exactly 0.15 is high, exactly 0.07 is medium.
const (
	highErrorRate   = 0.15
	mediumErrorRate = 0.07

	// ruleConfidence reflects the detector's generic trust in the
	// threshold heuristic, not measurement precision, so it is the same
	// for every rule-based card.
	ruleConfidence = 0.65
)

// IssueCard is a detector's proposed issue before persistence.
type IssueCard struct {
	Key            string         `json:"key"`
	Title          string         `json:"title"`
	Category       string         `json:"category"`
	Impact         string         `json:"impact"`
	Confidence     float64        `json:"confidence"`
	Screen         *string        `json:"screen"`
	Source         *string        `json:"source"`
	Evidence       map[string]any `json:"evidence"`
	Recommendation map[string]any `json:"recommendation"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Row converts the card to its persisted form.
func (c IssueCard) Row() *dbpkg.Issue {
	return &dbpkg.Issue{
		Key:            c.Key,
		Title:          c.Title,
		Category:       c.Category,
		Impact:         c.Impact,
		Confidence:     c.Confidence,
		Screen:         c.Screen,
		Source:         c.Source,
		Evidence:       datatypes.JSONMap(c.Evidence),
		Recommendation: datatypes.JSONMap(c.Recommendation),
		CreatedAt:      c.CreatedAt,
	}
}

// DetectReliability applies the fixed error-rate thresholds to the
// snapshots that clear the minimum-event floor, ranked by descending error
// rate and capped at MaxRuleIssues. Screens below the floor are silently
// excluded; a snapshot without a defined error rate is skipped, never an
// error. Never calls an external service, so its only failure mode is an
// empty result.
func DetectReliability(snaps []Snapshot, minEvents int, now time.Time) []IssueCard {
	eligible := make([]Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.TotalEvents >= minEvents {
			eligible = append(eligible, s)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].APIErrorRate != eligible[j].APIErrorRate {
			return eligible[i].APIErrorRate > eligible[j].APIErrorRate
		}
		return eligible[i].Screen < eligible[j].Screen
	})
	if len(eligible) > config.MaxRuleIssues {
		eligible = eligible[:config.MaxRuleIssues]
	}

	cards := make([]IssueCard, 0, len(eligible))
	for _, s := range eligible {
		if s.TotalEvents == 0 {
			continue // error rate undefined
		}

		rate := s.APIErrorRate
		impact := "low"
		switch {
		case rate >= highErrorRate:
			impact = "high"
		case rate >= mediumErrorRate:
			impact = "medium"
		}

		cards = append(cards, IssueCard{
			Key:        RuleIssueKey(s.Screen, s.WindowHours),
			Title:      fmt.Sprintf("High API error rate on %s (%.1f%%)", s.Screen, rate*100),
			Category:   "reliability",
			Impact:     impact,
			Confidence: ruleConfidence,
			Screen:     screenOrNil(s.Screen),
			Source:     s.Source,
			Evidence: map[string]any{
				"window_hours": s.WindowHours,
				"error_rate":   rate,
				"errors":       s.APIErrorCount,
				"total_events": s.TotalEvents,
			},
			Recommendation: ruleRecommendation(),
			CreatedAt:      now,
		})
	}
	return cards
}

// ruleRecommendation is the canned template every rule-based card carries;
// it does not vary with the evidence.
func ruleRecommendation() map[string]any {
	return map[string]any{
		"hypothesis": "API failures correlate with checkout abandonment.",
		"suggested_fixes": []any{
			"Add retry/backoff for transient errors",
			"Add timeout-specific UX feedback",
			"Capture endpoint + latency instrumentation",
		},
		"experiment": map[string]any{
			"variantA":      "Current error handling",
			"variantB":      "Retry + explicit user messaging",
			"primaryMetric": "checkout_completion_rate",
		},
	}
}

// screenOrNil maps the unlabeled sentinel back to NULL for persistence.
func screenOrNil(screen string) *string {
	if screen == "" || screen == UnknownScreen {
		return nil
	}
	s := screen
	return &s
}
