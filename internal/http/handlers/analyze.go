package handlers

import (
	"errors"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"uxpulse/internal/analytics"
	"uxpulse/internal/config"
	dbpkg "uxpulse/internal/db"
	"uxpulse/internal/llm"
	"uxpulse/internal/metrics"
)

// AnalyzeIssues runs the model-assisted detector over the requested window,
// persists the reconciled cards and returns them. Configuration problems are
// reported as 400 before any provider call; provider failures map to 502.
func AnalyzeIssues(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if err := cfg.ValidateModel(); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		screen := string(ctx.QueryArgs().Peek("screen"))
		hours := config.ClampWindowHours(queryInt(ctx, "hours", cfg.WindowHours))

		opts := []llm.Option{}
		if cfg.ModelBaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.ModelBaseURL))
		}
		detector := &analytics.AssistDetector{
			Completer: llm.NewClient(cfg.ModelAPIKey, opts...),
			Model:     cfg.ModelName,
		}

		cards, err := detector.AnalyzeWindow(ctx, db, time.Now(), hours, screen)
		if err != nil {
			var perr *analytics.ProviderError
			if errors.As(err, &perr) {
				errResponse(ctx, fasthttp.StatusBadGateway, perr.Error())
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "analysis failed")
			return
		}

		for _, card := range cards {
			if err := dbpkg.UpsertIssue(db, card.Row()); err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist issues")
				return
			}
			metrics.IssueUpserted("llm", card.Impact)
		}

		if cards == nil {
			cards = []analytics.IssueCard{}
		}
		jsonResponse(ctx, cards)
	}
}
