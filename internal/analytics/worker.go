package analytics

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"uxpulse/internal/config"
	dbpkg "uxpulse/internal/db"
	"uxpulse/internal/logging"
	"uxpulse/internal/metrics"
)

// RunRuleDetection aggregates the configured window, applies the
// threshold rules and upserts the resulting cards. Returns how many issues
// were written.
func RunRuleDetection(db *gorm.DB, cfg *config.Config, now time.Time) (int, error) {
	snaps, err := Aggregate(db, now, cfg.WindowHours, "")
	if err != nil {
		return 0, err
	}

	cards := DetectReliability(snaps, cfg.MinEventsForIssue, now)
	for _, card := range cards {
		if err := dbpkg.UpsertIssue(db, card.Row()); err != nil {
			return 0, err
		}
		metrics.IssueUpserted("rules", card.Impact)
	}
	return len(cards), nil
}

// StartRuleWorker launches a background goroutine that runs rule-based
// detection once at startup and then hourly. The worker shares nothing but
// the DB handle; overlapping runs against the same keys resolve as
// last-write-wins upserts.
func StartRuleWorker(db *gorm.DB, cfg *config.Config) {
	go func() {
		log := logging.L()

		if n, err := RunRuleDetection(db, cfg, time.Now()); err != nil {
			log.Error("rule detection failed (startup)", zap.Error(err))
		} else {
			log.Info("rule detection finished (startup)", zap.Int("issues", n))
		}

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for t := range ticker.C {
			if n, err := RunRuleDetection(db, cfg, t); err != nil {
				log.Error("rule detection failed", zap.Error(err))
			} else {
				log.Info("rule detection finished", zap.Int("issues", n))
			}
		}
	}()
}
