package handlers

import (
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "uxpulse/internal/db"
)

type issueOut struct {
	ID             uint           `json:"id"`
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

func toIssueOut(issue dbpkg.Issue) issueOut {
	return issueOut{
		ID:             issue.ID,
		Key:            issue.Key,
		Title:          issue.Title,
		Category:       issue.Category,
		Impact:         issue.Impact,
		Confidence:     issue.Confidence,
		Screen:         issue.Screen,
		Source:         issue.Source,
		Evidence:       issue.Evidence,
		Recommendation: issue.Recommendation,
		CreatedAt:      issue.CreatedAt,
	}
}

// ListIssues returns persisted issues, newest first.
func ListIssues(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		limit := queryInt(ctx, "limit", 50)
		issues, err := dbpkg.ListIssues(db, limit)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load issues")
			return
		}

		out := make([]issueOut, 0, len(issues))
		for _, issue := range issues {
			out = append(out, toIssueOut(issue))
		}
		jsonResponse(ctx, out)
	}
}

// GetIssue returns a single issue by key, 404 when unknown.
func GetIssue(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		key := pathString(ctx, "key")
		if key == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "key required")
			return
		}

		issue, err := dbpkg.IssueByKey(db, key)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusNotFound, "Issue not found")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load issue")
			return
		}
		jsonResponse(ctx, toIssueOut(*issue))
	}
}

type recommendationOut struct {
	IssueKey       string         `json:"issue_key"`
	Title          string         `json:"title"`
	Recommendation map[string]any `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
}

// ListRecommendations projects the newest issues down to their
// recommendation payloads.
func ListRecommendations(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		limit := queryInt(ctx, "limit", 50)
		issues, err := dbpkg.ListIssues(db, limit)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load issues")
			return
		}

		out := make([]recommendationOut, 0, len(issues))
		for _, issue := range issues {
			rec := issue.Recommendation
			if rec == nil {
				rec = map[string]any{}
			}
			out = append(out, recommendationOut{
				IssueKey:       issue.Key,
				Title:          issue.Title,
				Recommendation: rec,
				Confidence:     issue.Confidence,
			})
		}
		jsonResponse(ctx, out)
	}
}
