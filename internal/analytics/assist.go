package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"uxpulse/internal/llm"
	"uxpulse/internal/metrics"
)

// ProviderError marks a failure of the model provider itself: transport
// errors, empty or malformed bodies, or a response that violates the
// declared output shape. Distinct from configuration (input) errors, which
// are reported before any network call.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "model provider: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerErrf(format string, args ...any) error {
	return &ProviderError{Err: fmt.Errorf(format, args...)}
}

// ChatCompleter is the single round trip the detector needs from a
// provider. *llm.Client satisfies it; tests substitute canned responses.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req llm.ChatCompletionRequest) (llm.ChatCompletionResponse, error)
}

// AssistDetector proposes issue cards by sending metric snapshots to a
// language model and reconciling the answer against those snapshots.
type AssistDetector struct {
	Completer ChatCompleter
	Model     string
}

const systemPrompt = "You are a senior product analytics assistant. " +
	"Generate concise, evidence-driven issue cards. " +
	"Return strict JSON only."

// BuildPrompt assembles the structured request object: task, constraints,
// window, the full metrics list, and the declared output shape.
func BuildPrompt(hours int, snaps []Snapshot) map[string]any {
	metrics := make([]any, 0, len(snaps))
	for _, s := range snaps {
		metrics = append(metrics, s.Evidence())
	}

	return map[string]any{
		"task": "Generate UX issue cards from screen metrics.",
		"rules": []any{
			"Use only the provided metrics. Do not invent numeric values.",
			"Return one issue per screen that has notable risk or degradation signal.",
			"confidence must be a float between 0 and 1.",
			"impact must be one of: high, medium, low.",
			"category should be one of: ux, performance, reliability, funnel.",
		},
		"window_hours": hours,
		"metrics":      metrics,
		"output_schema": map[string]any{
			"issues": []any{
				map[string]any{
					"screen":          "string",
					"title":           "string",
					"category":        "ux|performance|reliability|funnel",
					"impact":          "high|medium|low",
					"confidence":      "number_0_to_1",
					"hypothesis":      "string",
					"suggested_fixes": []any{"string"},
					"experiment": map[string]any{
						"variantA":      "string",
						"variantB":      "string",
						"primaryMetric": "string",
					},
				},
			},
		},
	}
}

// AnalyzeWindow aggregates the window (no volume floor) and runs the
// detector over the result. An empty window yields an empty result without
// touching the provider.
func (d *AssistDetector) AnalyzeWindow(ctx context.Context, db *gorm.DB, now time.Time, hours int, screen string) ([]IssueCard, error) {
	snaps, err := Aggregate(db, now, hours, screen)
	if err != nil {
		return nil, err
	}
	return d.Detect(ctx, snaps, hours, now)
}

// Detect makes exactly one chat-completion round trip, validates the
// structured response, and reconciles each proposed card against the
// snapshot list. Cards naming a screen absent from the snapshots are
// dropped: the model must not invent screens, and the matched snapshot, not
// the model's own numbers, becomes the persisted evidence.
func (d *AssistDetector) Detect(ctx context.Context, snaps []Snapshot, hours int, now time.Time) ([]IssueCard, error) {
	if len(snaps) == 0 {
		return nil, nil
	}

	prompt, err := json.Marshal(BuildPrompt(hours, snaps))
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	resp, err := d.Completer.ChatCompletion(ctx, llm.ChatCompletionRequest{
		Model:          d.Model,
		Temperature:    0.2,
		ResponseFormat: map[string]any{"type": "json_object"},
		Messages: []llm.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Respond in JSON matching the requested schema.\n" + string(prompt)},
		},
	})
	if err != nil {
		metrics.ModelRequest("error")
		return nil, &ProviderError{Err: err}
	}
	metrics.ModelRequest("ok")

	content := resp.Content()
	if content == "" {
		return nil, providerErrf("model returned empty content")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, providerErrf("parse model JSON: %w", err)
	}
	rawIssues, ok := payload["issues"].([]any)
	if !ok {
		return nil, providerErrf("model payload missing 'issues' array")
	}

	byScreen := make(map[string]Snapshot, len(snaps))
	for _, s := range snaps {
		byScreen[s.Screen] = s
	}

	cards := make([]IssueCard, 0, len(rawIssues))
	for _, raw := range rawIssues {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		screenName, _ := item["screen"].(string)
		snap, ok := byScreen[screenName]
		if !ok {
			continue // model named a screen we did not measure
		}

		cards = append(cards, IssueCard{
			Key:        AssistIssueKey(snap),
			Title:      stringField(item, "title", "Screen UX issue detected"),
			Category:   stringField(item, "category", "ux"),
			Impact:     stringField(item, "impact", "medium"),
			Confidence: floatField(item, "confidence", 0.5),
			Screen:     screenOrNil(snap.Screen),
			Source:     snap.Source,
			Evidence:   snap.Evidence(),
			Recommendation: map[string]any{
				"hypothesis":      stringField(item, "hypothesis", ""),
				"suggested_fixes": listField(item, "suggested_fixes"),
				"experiment":      objectField(item, "experiment"),
			},
			CreatedAt: now,
		})
	}
	return cards, nil
}

// The field helpers tolerate missing or mistyped fields so a card element
// can proceed with defaults.

func stringField(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

func floatField(m map[string]any, key string, def float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

func listField(m map[string]any, key string) []any {
	if l, ok := m[key].([]any); ok {
		return l
	}
	return []any{}
}

func objectField(m map[string]any, key string) map[string]any {
	if o, ok := m[key].(map[string]any); ok {
		return o
	}
	return map[string]any{}
}
