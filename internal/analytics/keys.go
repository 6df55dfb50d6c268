package analytics

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// RuleIssueKey identifies a rule-based finding. It is a pure function of
// (screen, window length): re-running the detector on the same screen and
// window overwrites the prior issue even when the numbers moved. A "latest
// snapshot wins" slot, not an append log.
func RuleIssueKey(screen string, hours int) string {
	return fmt.Sprintf("reliability:%s:%dh", screen, hours)
}

// AssistIssueKey identifies a model-assisted finding. Unlike the rule key
// it hashes the snapshot's evidence fields, so materially different
// evidence for the same screen/window yields a new key (and a new row,
// leaving the old one stale but intact), while identical evidence collapses
// onto the same key regardless of the model's prose.
func AssistIssueKey(snap Snapshot) string {
	stable := map[string]any{
		"screen":          snap.Screen,
		"hours":           snap.WindowHours,
		"total_events":    snap.TotalEvents,
		"api_error_count": snap.APIErrorCount,
		"api_error_rate":  snap.APIErrorRate,
		"p95_api_ms":      nil,
	}
	if snap.P95APIMs != nil {
		stable["p95_api_ms"] = *snap.P95APIMs
	}

	// json.Marshal emits map keys in sorted order, which makes the digest
	// deterministic.
	payload, _ := json.Marshal(stable)
	sum := sha1.Sum(payload)
	digest := hex.EncodeToString(sum[:])[:12]

	return fmt.Sprintf("llm:%s:%dh:%s", snap.Screen, snap.WindowHours, digest)
}
